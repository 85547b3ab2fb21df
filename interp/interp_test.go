package interp

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

func newEngine(t *testing.T, opts *Options, eopts ...Option) *Engine {
	t.Helper()
	if opts == nil {
		opts = DefaultOptions()
	}
	eng, err := New(opts, eopts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return eng
}

// TestPlainTextUnchanged 测试无占位符的文档原样通过
func TestPlainTextUnchanged(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"name": value.String("demo"),
		"port": value.Number(8080),
		"tags": value.List{value.String("a")},
	}

	out, err := eng.Interpolate(doc, nil)
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if !value.Equal(doc, out) {
		t.Errorf("无占位符的文档被修改：%v", out)
	}
}

// TestDisabledReturnsFreshCopy 测试禁用时仍返回深拷贝
func TestDisabledReturnsFreshCopy(t *testing.T) {
	eng := newEngine(t, &Options{Enabled: false})
	doc := value.Map{"k": value.String("${env:HOME}")}

	out, err := eng.Interpolate(doc, nil)
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if !value.Equal(doc, out) {
		t.Error("禁用时应该原样返回")
	}
	out.(value.Map)["k"] = value.String("mutated")
	if doc["k"] != value.String("${env:HOME}") {
		t.Error("禁用时返回值与输入共享存储")
	}
}

// TestEnvResolver 测试环境变量解析与多占位符拼接
func TestEnvResolver(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{"addr": value.String("${env:HOST}:${env:PORT}")}
	rctx := &Context{Env: map[string]string{"HOST": "localhost", "PORT": "8080"}}

	out, err := eng.Interpolate(doc, rctx)
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got := value.GetOr(out, "addr", nil); got != value.String("localhost:8080") {
		t.Errorf("addr = %v，期望 localhost:8080", got)
	}
}

// TestLiteralTextPreserved 测试占位符前后的字面文本保留
func TestLiteralTextPreserved(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{"url": value.String("http://${env:HOST}/api")}
	rctx := &Context{Env: map[string]string{"HOST": "example.com"}}

	out, _ := eng.Interpolate(doc, rctx)
	if got := value.GetOr(out, "url", nil); got != value.String("http://example.com/api") {
		t.Errorf("url = %v", got)
	}
}

// TestBareVariable 测试裸变量名走内置解析链
func TestBareVariable(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"host":        value.String("db.internal"),
		"from_env":    value.String("${PORT}"),
		"from_config": value.String("${host}"),
	}
	rctx := &Context{Env: map[string]string{"PORT": "5432"}}

	out, err := eng.Interpolate(doc, rctx)
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got := value.GetOr(out, "from_env", nil); got != value.String("5432") {
		t.Errorf("from_env = %v，裸变量应该先查环境", got)
	}
	if got := value.GetOr(out, "from_config", nil); got != value.String("db.internal") {
		t.Errorf("from_config = %v，环境缺失时回退 config", got)
	}
}

// TestConfigSelfReference 测试文档自引用及链式解析
func TestConfigSelfReference(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"base": value.Map{"host": value.String("internal")},
		"db":   value.Map{"addr": value.String("${config:base.host}:5432")},
		// 引用的目标本身也含占位符，应该被递归解析
		"url": value.String("tcp://${config:db.addr}"),
	}

	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got := value.GetOr(out, "db.addr", nil); got != value.String("internal:5432") {
		t.Errorf("db.addr = %v", got)
	}
	if got := value.GetOr(out, "url", nil); got != value.String("tcp://internal:5432") {
		t.Errorf("url = %v", got)
	}
}

// TestConfigNumberAndBool 测试自引用非字符串标量的字符串化
func TestConfigNumberAndBool(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"port":  value.Number(8080),
		"debug": value.Bool(true),
		"s":     value.String("${config:port}/${config:debug}"),
	}

	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got := value.GetOr(out, "s", nil); got != value.String("8080/true") {
		t.Errorf("s = %v", got)
	}
}

// TestCycleDetection 测试双向循环引用立即报错
func TestCycleDetection(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"a": value.String("${config:b}"),
		"b": value.String("${config:a}"),
	}

	done := make(chan error, 1)
	go func() {
		_, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
		done <- err
	}()

	select {
	case err := <-done:
		if !IsCycle(err) {
			t.Fatalf("期望循环错误，得到 %v", err)
		}
		if xerrors.GetCode(err) != CodeCycle {
			t.Errorf("错误码 = %q，期望 %s", xerrors.GetCode(err), CodeCycle)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("循环引用导致无限递归")
	}
}

// TestSelfCycle 测试直接自引用
func TestSelfCycle(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{"a": value.String("prefix ${config:a}")}

	_, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
	if !IsCycle(err) {
		t.Fatalf("期望循环错误，得到 %v", err)
	}
}

// TestSiblingSharedTarget 测试兄弟子树引用同一目标不误报循环
func TestSiblingSharedTarget(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"shared": value.String("common"),
		"a":      value.String("${config:shared}"),
		"b":      value.String("${config:shared}"),
	}

	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
	if err != nil {
		t.Fatalf("兄弟引用被误判为循环：%v", err)
	}
	if value.GetOr(out, "a", nil) != value.String("common") || value.GetOr(out, "b", nil) != value.String("common") {
		t.Errorf("解析结果错误：%v", out)
	}
}

// TestUndefinedPolicy 测试未定义变量的两种策略
func TestUndefinedPolicy(t *testing.T) {
	doc := value.Map{"k": value.String("${env:NOT_DEFINED_ANYWHERE}")}
	rctx := &Context{Env: map[string]string{}}

	// 严格模式：报错
	strict := newEngine(t, &Options{Enabled: true})
	_, err := strict.Interpolate(doc, rctx)
	if !IsUnresolved(err) {
		t.Fatalf("期望未解析错误，得到 %v", err)
	}
	if xerrors.GetCode(err) != CodeUnresolved {
		t.Errorf("错误码 = %q", xerrors.GetCode(err))
	}

	// 宽松模式：占位符原样保留
	lenient := newEngine(t, &Options{Enabled: true, AllowUndefined: true})
	out, err := lenient.Interpolate(doc, rctx)
	if err != nil {
		t.Fatalf("宽松模式不应该报错：%v", err)
	}
	if got := value.GetOr(out, "k", nil); got != value.String("${env:NOT_DEFINED_ANYWHERE}") {
		t.Errorf("k = %v，期望保留原文", got)
	}
}

// TestDefaultsFallback 测试 Options.Defaults 兜底
func TestDefaultsFallback(t *testing.T) {
	eng := newEngine(t, &Options{
		Enabled:  true,
		Defaults: map[string]string{"REGION": "us-east-1"},
	})
	doc := value.Map{"region": value.String("${env:REGION}")}

	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got := value.GetOr(out, "region", nil); got != value.String("us-east-1") {
		t.Errorf("region = %v，期望 defaults 兜底", got)
	}
}

// TestCustomPrefixSuffix 测试自定义占位符边界
func TestCustomPrefixSuffix(t *testing.T) {
	eng := newEngine(t, &Options{Enabled: true, Prefix: "{{", Suffix: "}}"})
	doc := value.Map{"k": value.String("{{env:NAME}} and ${env:NAME}")}

	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{"NAME": "x"}})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	// ${...} 不再是占位符，按字面保留
	if got := value.GetOr(out, "k", nil); got != value.String("x and ${env:NAME}") {
		t.Errorf("k = %v", got)
	}
}

// TestCustomResolver 测试自定义解析器注册
func TestCustomResolver(t *testing.T) {
	eng := newEngine(t, nil, WithResolver("upper", func(expr string, rctx *Context) (string, error) {
		if v, ok := rctx.Env[expr]; ok {
			return strings.ToUpper(v), nil
		}
		return "", unresolvedErr(expr, "not found")
	}))
	doc := value.Map{"k": value.String("${upper:name}")}

	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{"name": "demo"}})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if got := value.GetOr(out, "k", nil); got != value.String("DEMO") {
		t.Errorf("k = %v", got)
	}
}

// TestMathResolver 测试算术解析器
func TestMathResolver(t *testing.T) {
	eng := newEngine(t, nil)

	tests := []struct {
		expr string
		want string
	}{
		{"1+2", "3"},
		{"2+3*4", "14"},         // 标准优先级
		{"(2+3)*4", "20"},       // 括号
		{"10/3", "3"},           // 整数除法
		{"100 - 20 / 2", "90"},  // 空白容忍
		{"-5+3", "-2"},          // 一元负号
	}
	for _, tt := range tests {
		doc := value.Map{"v": value.String("${math:" + tt.expr + "}")}
		out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
		if err != nil {
			t.Errorf("math %q error = %v", tt.expr, err)
			continue
		}
		if got := value.GetOr(out, "v", nil); got != value.String(tt.want) {
			t.Errorf("math %q = %v，期望 %s", tt.expr, got, tt.want)
		}
	}
}

// TestMathRejects 测试非法算术表达式统一报未解析
func TestMathRejects(t *testing.T) {
	eng := newEngine(t, nil)
	for _, expr := range []string{"1+", "(1+2", "1/0", "", "os.Exit(1)", "2**3"} {
		doc := value.Map{"v": value.String("${math:" + expr + "}")}
		_, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
		if !IsUnresolved(err) {
			t.Errorf("math %q 期望未解析错误，得到 %v", expr, err)
		}
	}
}

// TestFileResolver 测试文件内容解析器
func TestFileResolver(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "token.txt"), []byte("s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	eng := newEngine(t, nil)
	doc := value.Map{"token": value.String("${file:token.txt}")}
	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}, WorkDir: tmpDir})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	// 尾部换行被裁掉
	if got := value.GetOr(out, "token", nil); got != value.String("s3cret") {
		t.Errorf("token = %v", got)
	}
}

// TestDateResolver 测试日期解析器的固定格式集
func TestDateResolver(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"year": value.String("${date:year}"),
		"unix": value.String("${date:unix}"),
	}
	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}

	year := string(value.GetOr(out, "year", value.String("")).(value.String))
	if year != time.Now().Format("2006") {
		t.Errorf("year = %s", year)
	}
	unix := string(value.GetOr(out, "unix", value.String("")).(value.String))
	if _, err := strconv.ParseInt(unix, 10, 64); err != nil {
		t.Errorf("unix = %s 不是整数", unix)
	}
}

// TestRandomResolver 测试随机值解析器
func TestRandomResolver(t *testing.T) {
	eng := newEngine(t, nil)
	doc := value.Map{
		"id":  value.String("${random:uuid}"),
		"hex": value.String("${random:hex:8}"),
		"n":   value.String("${random:int:100}"),
	}
	out, err := eng.Interpolate(doc, &Context{Env: map[string]string{}})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}

	id := string(value.GetOr(out, "id", value.String("")).(value.String))
	if len(id) != 36 {
		t.Errorf("uuid 长度 = %d", len(id))
	}
	hexv := string(value.GetOr(out, "hex", value.String("")).(value.String))
	if len(hexv) != 8 {
		t.Errorf("hex 长度 = %d，期望 8", len(hexv))
	}
	n, err := strconv.Atoi(string(value.GetOr(out, "n", value.String("")).(value.String)))
	if err != nil || n < 0 || n >= 100 {
		t.Errorf("random int = %v", n)
	}
}

// TestRegistryNames 测试注册表内置项完整
func TestRegistryNames(t *testing.T) {
	reg := NewRegistry()
	names := reg.Names()
	for _, builtin := range []string{"config", "date", "default", "env", "file", "math", "random"} {
		if _, ok := reg.Lookup(builtin); !ok {
			t.Errorf("缺少内置解析器 %s", builtin)
		}
	}
	if len(names) != 7 {
		t.Errorf("内置解析器数量 = %d，期望 7", len(names))
	}

	if err := reg.Register("", nil); err == nil {
		t.Error("空名称注册应该报错")
	}
}

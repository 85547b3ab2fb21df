// Package interp 提供配置文档的变量插值引擎。
//
// 引擎深度优先遍历文档，把字符串叶子中的 ${...} 占位符改写为
// 解析器链产出的值。占位符表达式支持可选的解析器前缀：
//
//	${env:PORT}        指定 env 解析器
//	${config:db.host}  引用文档内已合并的值
//	${PORT}            裸变量名，依次尝试 env -> config -> default
//
// 内置解析器：env、config、default、file、date、math、random。
// 解析器注册表在构造时注入，可以扩展，内置项始终存在。
//
// config 自引用通过逐分支的 visited 集做循环检测，
// 自引用回到已访问路径时立即报 INTERPOLATION_CYCLE，
// 并在错误信息里给出完整引用链。
//
// 基本使用：
//
//	engine, _ := interp.New(nil)
//	doc, err := engine.Interpolate(merged, &interp.Context{
//	    Env: map[string]string{"PORT": "8080"},
//	})
package interp

import (
	"os"
	"strings"

	"github.com/ceyewan/cascade/clog"
	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// Engine 插值引擎，一个实例绑定一份解析器注册表
type Engine struct {
	opts     *Options
	registry *Registry
	logger   clog.Logger
}

// New 创建插值引擎。
//
// opts 为 nil 时使用默认选项（启用插值，前后缀 ${ 和 }）。
// 注册表通过 WithResolver / WithRegistry 注入，未注入时
// 创建只含内置解析器的新注册表。
func New(opts *Options, eopts ...Option) (*Engine, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	o := applyEngineOptions(eopts...)

	registry := o.registry
	if registry == nil {
		registry = NewRegistry()
	}
	for name, r := range o.resolvers {
		if err := registry.Register(name, r); err != nil {
			return nil, err
		}
	}

	logger := o.logger
	if logger == nil {
		logger = clog.Discard()
	}

	return &Engine{opts: opts, registry: registry, logger: logger}, nil
}

// Interpolate 返回展开所有占位符后的新文档。
//
// 输入文档不被修改；插值被禁用时仍返回一份深拷贝，
// 保持调用方持有的文档不可变。
func (e *Engine) Interpolate(doc value.Value, rctx *Context) (value.Value, error) {
	working := value.Clone(doc)
	if !e.opts.Enabled {
		return working, nil
	}

	if rctx == nil {
		rctx = &Context{}
	}
	state := &walker{
		eng:     e,
		rctx:    rctx.snapshot(),
		doc:     working,
		visited: make(map[string]bool),
	}
	state.rctx.Doc = working

	// 根节点本身是字符串的退化情形
	if s, ok := working.(value.String); ok {
		resolved, err := state.resolveString(nil, string(s))
		if err != nil {
			return nil, err
		}
		return value.String(resolved), nil
	}

	if err := state.walk(working, nil); err != nil {
		return nil, err
	}
	return working, nil
}

// walker 承载一次插值遍历的全部状态
type walker struct {
	eng     *Engine
	rctx    *Context
	doc     value.Value
	visited map[string]bool // 当前分支已进入的路径
	chain   []string        // visited 的有序视图，用于循环链报告
}

func (w *walker) enter(path value.Path) string {
	key := path.String()
	w.visited[key] = true
	w.chain = append(w.chain, key)
	return key
}

func (w *walker) leave(key string) {
	delete(w.visited, key)
	w.chain = w.chain[:len(w.chain)-1]
}

// walk 深度优先遍历并原位改写字符串叶子（doc 是私有深拷贝）
func (w *walker) walk(v value.Value, path value.Path) error {
	switch node := v.(type) {
	case value.Map:
		key := w.enter(path)
		defer w.leave(key)
		for _, k := range value.SortedKeys(node) {
			child := node[k]
			childPath := path.Child(k)
			if s, ok := child.(value.String); ok {
				resolved, err := w.resolveString(childPath, string(s))
				if err != nil {
					return err
				}
				node[k] = value.String(resolved)
				continue
			}
			if err := w.walk(child, childPath); err != nil {
				return err
			}
		}
		return nil
	case value.List:
		key := w.enter(path)
		defer w.leave(key)
		for i, child := range node {
			childPath := path.At(i)
			if s, ok := child.(value.String); ok {
				resolved, err := w.resolveString(childPath, string(s))
				if err != nil {
					return err
				}
				node[i] = value.String(resolved)
				continue
			}
			if err := w.walk(child, childPath); err != nil {
				return err
			}
		}
		return nil
	default:
		// 非容器的根节点：标量无占位符可言（String 根由调用方处理）
		return nil
	}
}

// resolveString 展开单个字符串中所有不重叠的占位符。
//
// 字符串自身的路径在解析期间记入 visited，
// 使 ${config:<自身>} 形式的自引用立即触发循环错误。
func (w *walker) resolveString(path value.Path, s string) (string, error) {
	prefix, suffix := w.eng.opts.Prefix, w.eng.opts.Suffix
	if !strings.Contains(s, prefix) {
		return s, nil
	}

	key := w.enter(path)
	defer w.leave(key)

	var sb strings.Builder
	rest := s
	for {
		start := strings.Index(rest, prefix)
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+len(prefix):], suffix)
		if end < 0 {
			// 后缀缺失，剩余部分按字面保留
			sb.WriteString(rest)
			break
		}

		sb.WriteString(rest[:start])
		expr := rest[start+len(prefix) : start+len(prefix)+end]
		placeholder := rest[start : start+len(prefix)+end+len(suffix)]
		rest = rest[start+len(prefix)+end+len(suffix):]

		resolved, err := w.resolveExpr(expr)
		if err != nil {
			if w.eng.opts.AllowUndefined && (xerrors.Is(err, xerrors.ErrUnresolved) || xerrors.Is(err, xerrors.ErrCycle)) {
				// 宽松模式：占位符原样保留，不做部分替换
				w.eng.logger.Debug("placeholder left verbatim",
					clog.String("expr", expr), clog.Error(err))
				sb.WriteString(placeholder)
				continue
			}
			return "", err
		}
		sb.WriteString(resolved)
	}
	return sb.String(), nil
}

// resolveExpr 解析单个变量表达式。
//
// 回退顺序：显式解析器 -> 内置链（env、config、default）->
// Options.Defaults -> INTERPOLATION_UNRESOLVED。
func (w *walker) resolveExpr(expr string) (string, error) {
	w.bindContext()

	name := expr
	if i := strings.Index(expr, ":"); i >= 0 {
		if r, ok := w.eng.registry.Lookup(expr[:i]); ok {
			out, err := r(expr[i+1:], w.rctx)
			if err != nil {
				return w.fallbackDefaults(expr[i+1:], err)
			}
			return out, nil
		}
		// 前缀未注册：整个表达式按裸变量名处理
	}

	var lastErr error
	for _, builtin := range bareChain {
		r, ok := w.eng.registry.Lookup(builtin)
		if !ok {
			continue
		}
		out, err := r(name, w.rctx)
		if err == nil {
			return out, nil
		}
		if xerrors.Is(err, xerrors.ErrCycle) {
			return "", err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = unresolvedErr(name, "no resolver accepted variable")
	}
	return w.fallbackDefaults(name, lastErr)
}

// fallbackDefaults 在解析失败后查 Options.Defaults
func (w *walker) fallbackDefaults(name string, cause error) (string, error) {
	if xerrors.Is(cause, xerrors.ErrCycle) {
		return "", cause
	}
	if v, ok := w.eng.opts.Defaults[name]; ok {
		return v, nil
	}
	if !xerrors.Is(cause, xerrors.ErrUnresolved) {
		cause = xerrors.WithCode(
			xerrors.Wrapf(xerrors.ErrUnresolved, "resolver failed: %v", cause), CodeUnresolved)
	}
	return "", cause
}

// bindContext 把遍历状态挂到 Context 上，供 config 解析器回调
func (w *walker) bindContext() {
	w.rctx.Doc = w.doc
	w.rctx.configLookup = w.lookupConfig
	if w.rctx.Env == nil {
		w.rctx.Env = envTable()
	}
}

// bareChain 裸变量名的内置解析顺序
var bareChain = []string{ResolverEnv, ResolverConfig, ResolverDefault}

// envTable 把进程环境变量转成查找表
func envTable() map[string]string {
	environ := os.Environ()
	table := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			table[kv[:i]] = kv[i+1:]
		}
	}
	return table
}

package interp

import (
	"encoding/hex"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// resolveEnv 环境变量查找
func resolveEnv(name string, rctx *Context) (string, error) {
	if v, ok := rctx.Env[name]; ok {
		return v, nil
	}
	return "", unresolvedErr(name, "environment variable not set")
}

// resolveConfig 文档内自引用，走遍历器的循环检测通道
func resolveConfig(pathExpr string, rctx *Context) (string, error) {
	return rctx.ConfigValue(pathExpr)
}

// resolveDefault 先查环境变量，再查文档自引用
func resolveDefault(name string, rctx *Context) (string, error) {
	if v, err := resolveEnv(name, rctx); err == nil {
		return v, nil
	}
	out, err := resolveConfig(name, rctx)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrCycle) {
			return "", err
		}
		return "", unresolvedErr(name, "neither environment nor config define variable")
	}
	return out, nil
}

// resolveFile 文件字面内容，相对路径以 Context.WorkDir 为基准
func resolveFile(path string, rctx *Context) (string, error) {
	if path == "" {
		return "", unresolvedErr(path, "empty file path")
	}
	full := path
	if !filepath.IsAbs(full) && rctx.WorkDir != "" {
		full = filepath.Join(rctx.WorkDir, full)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", unresolvedErr(path, "cannot read file: "+err.Error())
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// resolveDate 当前日期时间，仅支持固定的小格式集
func resolveDate(format string, _ *Context) (string, error) {
	now := time.Now()
	switch format {
	case "", "now", "iso":
		return now.Format(time.RFC3339), nil
	case "unix":
		return strconv.FormatInt(now.Unix(), 10), nil
	case "date":
		return now.Format("2006-01-02"), nil
	case "time":
		return now.Format("15:04:05"), nil
	case "year":
		return now.Format("2006"), nil
	default:
		return "", unresolvedErr(format, "unknown date format (want now|iso|unix|date|time|year)")
	}
}

// resolveRandom 非加密随机值，仅用于占位符便利，绝不用于密钥
func resolveRandom(expr string, _ *Context) (string, error) {
	kind := expr
	arg := ""
	if i := strings.Index(expr, ":"); i >= 0 {
		kind, arg = expr[:i], expr[i+1:]
	}

	switch kind {
	case "uuid":
		return uuid.NewString(), nil
	case "hex":
		n := 16
		if arg != "" {
			parsed, err := strconv.Atoi(arg)
			if err != nil || parsed <= 0 || parsed > 1024 {
				return "", unresolvedErr(expr, "hex length must be a positive integer")
			}
			n = parsed
		}
		buf := make([]byte, (n+1)/2)
		for i := range buf {
			buf[i] = byte(rand.UintN(256))
		}
		return hex.EncodeToString(buf)[:n], nil
	case "int":
		if arg == "" {
			return strconv.FormatInt(rand.Int64(), 10), nil
		}
		bound, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || bound <= 0 {
			return "", unresolvedErr(expr, "int bound must be a positive integer")
		}
		return strconv.FormatInt(rand.Int64N(bound), 10), nil
	default:
		return "", unresolvedErr(expr, "unknown random kind (want uuid|hex|int)")
	}
}

// lookupConfig 是 config 解析器的实现主体，挂在遍历器上。
//
// 目标路径已在当前分支的 visited 集中时立即报循环；
// 目标仍是含占位符的字符串时递归解析，并把结果写回工作文档，
// 让同一轮插值中后续的引用直接看到已解析值。
func (w *walker) lookupConfig(pathExpr string) (string, error) {
	targetPath := value.ParsePath(pathExpr)
	key := targetPath.String()
	if w.visited[key] {
		return "", cycleErr(append(append([]string{}, w.chain...), key))
	}

	target, err := value.GetPath(w.doc, targetPath)
	if err != nil {
		return "", unresolvedErr(pathExpr, "config path not found")
	}

	switch tv := target.(type) {
	case value.String:
		s := string(tv)
		if strings.Contains(s, w.eng.opts.Prefix) {
			resolved, err := w.resolveString(targetPath, s)
			if err != nil {
				return "", err
			}
			w.setInPlace(targetPath, value.String(resolved))
			return resolved, nil
		}
		return s, nil
	case value.Number:
		return strconv.FormatFloat(float64(tv), 'f', -1, 64), nil
	case value.Bool:
		return strconv.FormatBool(bool(tv)), nil
	default:
		return "", unresolvedErr(pathExpr, "config value is not a scalar")
	}
}

// setInPlace 在工作文档（私有深拷贝）上原位写入已解析值
func (w *walker) setInPlace(path value.Path, v value.Value) {
	if len(path) == 0 {
		return
	}
	cur := w.doc
	for _, seg := range path[:len(path)-1] {
		switch node := cur.(type) {
		case value.Map:
			cur = node[seg.Key]
		case value.List:
			if seg.Index < 0 || seg.Index >= len(node) {
				return
			}
			cur = node[seg.Index]
		default:
			return
		}
	}
	last := path[len(path)-1]
	switch node := cur.(type) {
	case value.Map:
		node[last.Key] = v
	case value.List:
		if last.Index >= 0 && last.Index < len(node) {
			node[last.Index] = v
		}
	}
}

package interp

import (
	"sort"
	"sync"

	"github.com/ceyewan/cascade/xerrors"
)

// Resolver 把变量表达式解析为字符串值。
//
// 返回错误表示"无法解析"，引擎会继续走回退链。
type Resolver func(expr string, rctx *Context) (string, error)

// 内置解析器名称
const (
	ResolverEnv     = "env"     // 环境变量查找
	ResolverConfig  = "config"  // 文档内自引用（点分路径）
	ResolverDefault = "default" // 先 env 后 config 的兜底
	ResolverFile    = "file"    // 文件字面内容
	ResolverDate    = "date"    // 当前日期时间（固定格式集）
	ResolverMath    = "math"    // 受限整数算术
	ResolverRandom  = "random"  // 非加密随机值（uuid/hex/int）
)

// Registry 名称 -> 解析器的注册表。
//
// 构造时播种全部内置解析器；之后只能扩展或替换，
// 没有删除操作，内置项始终可用。
type Registry struct {
	mu sync.RWMutex
	m  map[string]Resolver
}

// NewRegistry 创建已播种内置解析器的注册表
func NewRegistry() *Registry {
	r := &Registry{m: make(map[string]Resolver, 8)}
	r.m[ResolverEnv] = resolveEnv
	r.m[ResolverConfig] = resolveConfig
	r.m[ResolverDefault] = resolveDefault
	r.m[ResolverFile] = resolveFile
	r.m[ResolverDate] = resolveDate
	r.m[ResolverMath] = resolveMath
	r.m[ResolverRandom] = resolveRandom
	return r
}

// Register 注册解析器，同名覆盖
func (r *Registry) Register(name string, fn Resolver) error {
	if name == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "resolver name is empty")
	}
	if fn == nil {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "resolver %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = fn
	return nil
}

// Lookup 按名称查找解析器
func (r *Registry) Lookup(name string) (Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.m[name]
	return fn, ok
}

// Names 返回已注册解析器的有序名称列表
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

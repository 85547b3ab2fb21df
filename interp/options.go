package interp

import (
	"github.com/ceyewan/cascade/clog"
	"github.com/ceyewan/cascade/xerrors"
)

// Options 插值选项
type Options struct {
	Enabled        bool              // 是否启用插值；禁用时 Interpolate 退化为深拷贝
	Prefix         string            // 占位符前缀，默认 "${"
	Suffix         string            // 占位符后缀，默认 "}"
	AllowUndefined bool              // 无法解析时保留占位符原文，而不是报错
	Defaults       map[string]string // 变量名 -> 兜底值，所有解析器失败后查询
}

// DefaultOptions 返回默认选项（启用插值）
func DefaultOptions() *Options {
	return &Options{Enabled: true}
}

// validate 设置默认值并验证选项
func (o *Options) validate() error {
	if o.Prefix == "" {
		o.Prefix = "${"
	}
	if o.Suffix == "" {
		o.Suffix = "}"
	}
	if o.Prefix == o.Suffix {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "placeholder prefix and suffix must differ")
	}
	return nil
}

// Option 引擎的函数式选项
type Option func(*engineOptions)

// engineOptions 内部选项结构
type engineOptions struct {
	logger    clog.Logger
	registry  *Registry
	resolvers map[string]Resolver
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("interp")
func WithLogger(l clog.Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l.WithNamespace("interp")
		}
	}
}

// WithRegistry 注入解析器注册表，多个引擎可以共享一份
func WithRegistry(r *Registry) Option {
	return func(o *engineOptions) {
		o.registry = r
	}
}

// WithResolver 注册自定义解析器
//
// 示例：
//
//	interp.WithResolver("vault", func(expr string, rctx *interp.Context) (string, error) {
//	    return lookupVault(expr)
//	})
func WithResolver(name string, r Resolver) Option {
	return func(o *engineOptions) {
		if o.resolvers == nil {
			o.resolvers = make(map[string]Resolver)
		}
		o.resolvers[name] = r
	}
}

// applyEngineOptions 应用所有选项并返回配置（内部使用）
func applyEngineOptions(opts ...Option) *engineOptions {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

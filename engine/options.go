package engine

import (
	"github.com/ceyewan/cascade/clog"
	"github.com/ceyewan/cascade/interp"
	"github.com/ceyewan/cascade/validate"
)

// Option 引擎的函数式选项
type Option func(*engineOptions)

// engineOptions 内部选项结构
type engineOptions struct {
	logger    clog.Logger
	registry  *interp.Registry
	resolvers map[string]interp.Resolver
	rules     []validate.Rule
}

// WithLogger 注入日志记录器
func WithLogger(l clog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithRegistry 注入插值解析器注册表，多个引擎可以共享一份
func WithRegistry(r *interp.Registry) Option {
	return func(o *engineOptions) {
		o.registry = r
	}
}

// WithResolver 注册自定义插值解析器
func WithResolver(name string, r interp.Resolver) Option {
	return func(o *engineOptions) {
		if o.resolvers == nil {
			o.resolvers = make(map[string]interp.Resolver)
		}
		o.resolvers[name] = r
	}
}

// WithRules 追加校验规则，按 Priority 降序执行
func WithRules(rules ...validate.Rule) Option {
	return func(o *engineOptions) {
		o.rules = append(o.rules, rules...)
	}
}

// applyOptions 应用所有选项并返回配置（内部使用）
func applyOptions(opts ...Option) *engineOptions {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Package source 提供配置来源加载器。
//
// 每个加载器产出一个 merge.Fragment（原始配置树 + 优先级），
// 解析引擎只消费 Loader 接口，不关心数据从哪里来、以什么格式存储。
// 本包内置内存、环境变量、.env 文件、配置文件和 etcd 五种加载器，
// 调用方也可以实现自己的 Loader 注入引擎。
//
// 基本使用：
//
//	loaders := []source.Loader{
//	    source.File("./config.yaml", 10, source.WithRequired()),
//	    source.DotEnv("./.env", 50),
//	    source.Env("APP", 100),
//	    source.Memory("cli", 200, overrides),
//	}
//	doc, err := eng.Resolve(ctx, loaders...)
package source

import (
	"context"

	"github.com/ceyewan/cascade/merge"
)

// Loader 配置来源加载器契约。
//
// Load 返回原始片段或错误；required 来源的失败会中止整次解析，
// 非 required 来源的失败只记日志并跳过。
type Loader interface {
	// Name 来源标识，用于日志和 Fragment.Source
	Name() string

	// Priority 优先级，越大越优先
	Priority() int

	// Required 该来源失败是否致命
	Required() bool

	// Load 加载并返回原始配置片段
	Load(ctx context.Context) (merge.Fragment, error)
}

// Option 加载器通用选项
type Option func(*loaderBase)

// loaderBase 各内置加载器共享的基础字段
type loaderBase struct {
	name     string
	priority int
	required bool
}

func (b *loaderBase) Name() string   { return b.name }
func (b *loaderBase) Priority() int  { return b.priority }
func (b *loaderBase) Required() bool { return b.required }

// WithRequired 标记来源为必需：加载失败中止整次解析
func WithRequired() Option {
	return func(b *loaderBase) {
		b.required = true
	}
}

// WithName 覆盖默认的来源标识
func WithName(name string) Option {
	return func(b *loaderBase) {
		b.name = name
	}
}

func newBase(name string, priority int, opts ...Option) loaderBase {
	b := loaderBase{name: name, priority: priority}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Package engine 提供配置解析引擎，是 cascade 的顶层入口。
//
// 引擎把多个配置源（source 包的加载器）串成一条解析管线：
//
//	加载 -> 按优先级合并 -> 变量插值 -> 校验
//
// 管线产出不可变的 Resolution，内部按加载器组合做 TTL 缓存，
// 并发的同键解析会合并为一次底层加载（singleflight）。
// 解析失败不会覆盖最近一次成功的结果，调用方可以通过
// LastGood 拿到降级数据。
//
// 基本使用：
//
//	eng, _ := engine.New(nil)
//	res, err := eng.Resolve(ctx,
//	    source.File("config.yaml", 10, source.WithRequired()),
//	    source.Env("APP", 100),
//	)
//	if err != nil {
//	    return err
//	}
//	var cfg AppConfig
//	_ = engine.Unmarshal(res.Doc, &cfg)
package engine

import (
	"context"
	"time"

	"github.com/ceyewan/cascade/clog"
	"github.com/ceyewan/cascade/interp"
	"github.com/ceyewan/cascade/source"
	"github.com/ceyewan/cascade/validate"
	"github.com/ceyewan/cascade/value"
	"github.com/maypok86/otter/v2"
)

// Engine 配置解析引擎接口
type Engine interface {
	// Resolve 执行完整解析管线并返回结果。
	// 相同加载器组合在缓存 TTL 内返回缓存结果；
	// 并发调用会合并为一次实际解析。
	Resolve(ctx context.Context, loaders ...source.Loader) (*Resolution, error)

	// LastGood 返回该加载器组合最近一次成功的解析结果
	LastGood(loaders ...source.Loader) (*Resolution, bool)

	// Invalidate 清除指定加载器组合的缓存；不带参数时清除全部
	Invalidate(loaders ...source.Loader)

	// Watch 周期性重新解析并推送变更事件，通过 context 取消监听
	Watch(ctx context.Context, loaders ...source.Loader) (<-chan Event, error)

	// Snapshot 为当前解析状态创建快照，返回快照 ID
	Snapshot() (string, error)

	// Restore 将指定快照恢复为当前解析状态
	Restore(id string) (*Resolution, error)

	// ExportSnapshot 把快照序列化成可持久化的字节流
	ExportSnapshot(id string) ([]byte, error)

	// ImportSnapshot 导入此前导出的快照，返回其 ID
	ImportSnapshot(data []byte) (string, error)

	// Format 把文档渲染为人类可读的文本（json/yaml/flat）
	Format(doc value.Value, opts *FormatOptions) (string, error)
}

// Resolution 一次成功解析的不可变产物
type Resolution struct {
	ID         string                // 本次解析的唯一标识
	Doc        value.Value           // 合并、插值、校验后的最终文档
	Sources    []string              // 实际参与合并的源名称（按加载顺序）
	Checksum   uint64                // 文档内容校验和，用于变更检测
	ResolvedAt time.Time             // 解析完成时间
	Warnings   []validate.Diagnostic // 校验产生的 warning 级诊断
}

// New 创建解析引擎。
//
// cfg 为 nil 时使用 DefaultConfig()。自定义插值解析器、
// 校验规则和日志通过函数式选项注入。
func New(cfg *Config, opts ...Option) (Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts...)

	logger := o.logger
	if logger == nil {
		logger = clog.Discard()
	}

	iopts := cfg.Interp
	if iopts == nil {
		iopts = interp.DefaultOptions()
	}
	eopts := []interp.Option{interp.WithLogger(logger)}
	if o.registry != nil {
		eopts = append(eopts, interp.WithRegistry(o.registry))
	}
	for name, r := range o.resolvers {
		eopts = append(eopts, interp.WithResolver(name, r))
	}
	interpolator, err := interp.New(iopts, eopts...)
	if err != nil {
		return nil, err
	}

	e := &resolutionEngine{
		cfg:    cfg,
		logger: logger.WithNamespace("engine"),
		interp: interpolator,
		rules:  o.rules,
		good:   make(map[string]*Resolution),
		snaps:  make(map[string]*snapshotRecord),
	}

	// TTL 为 0 表示禁用缓存，每次 Resolve 都走完整管线
	if cfg.CacheTTL > 0 {
		cache, err := otter.New(&otter.Options[string, *Resolution]{
			MaximumSize:      cfg.CacheCapacity,
			ExpiryCalculator: otter.ExpiryWriting[string, *Resolution](cfg.CacheTTL),
		})
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}

	return e, nil
}

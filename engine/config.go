package engine

import (
	"time"

	"github.com/ceyewan/cascade/interp"
	"github.com/ceyewan/cascade/merge"
	"github.com/ceyewan/cascade/validate"
	"github.com/ceyewan/cascade/xerrors"
)

// Config 解析引擎配置
type Config struct {
	// CacheTTL 解析结果的缓存时长，0 表示禁用缓存
	CacheTTL time.Duration

	// CacheCapacity 缓存最大条目数（按加载器组合计）
	CacheCapacity int

	// LoadTimeout 单个加载器的超时上限，0 表示不限制
	LoadTimeout time.Duration

	// WatchInterval 监听轮询间隔，0 时回退为 CacheTTL
	WatchInterval time.Duration

	// WorkDir file 插值解析器的相对路径基准
	WorkDir string

	// MergePolicy 合并策略，nil 时列表整体替换
	MergePolicy *merge.Policy

	// Interp 插值选项，nil 时使用 interp.DefaultOptions()
	Interp *interp.Options

	// Schema 校验 schema，nil 时跳过形状校验
	Schema *validate.Schema

	// Validation 校验选项
	Validation *validate.Options

	// Secrets 格式化输出时需要打码的文档路径
	Secrets []string
}

// DefaultConfig 返回带合理默认值的配置
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:      30 * time.Second,
		CacheCapacity: 128,
		LoadTimeout:   10 * time.Second,
	}
}

// validate 设置默认值并验证配置
func (c *Config) validate() error {
	if c.CacheTTL < 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "cache ttl must not be negative")
	}
	if c.LoadTimeout < 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "load timeout must not be negative")
	}
	if c.WatchInterval < 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "watch interval must not be negative")
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = 128
	}
	return nil
}

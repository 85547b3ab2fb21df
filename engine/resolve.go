package engine

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ceyewan/cascade/clog"
	"github.com/ceyewan/cascade/interp"
	"github.com/ceyewan/cascade/merge"
	"github.com/ceyewan/cascade/source"
	"github.com/ceyewan/cascade/validate"
	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// resolutionEngine Engine 的默认实现
type resolutionEngine struct {
	cfg    *Config
	logger clog.Logger
	interp *interp.Engine
	rules  []validate.Rule
	cache  *otter.Cache[string, *Resolution] // TTL 禁用时为 nil
	group  singleflight.Group

	mu    sync.RWMutex
	good  map[string]*Resolution // 加载器组合 -> 最近一次成功结果
	cur   *Resolution            // 全局最近一次成功结果，供快照使用
	snaps map[string]*snapshotRecord
}

func (e *resolutionEngine) Resolve(ctx context.Context, loaders ...source.Loader) (*Resolution, error) {
	if len(loaders) == 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "at least one loader required")
	}
	key := cacheKey(loaders)

	if e.cache != nil {
		if res, ok := e.cache.GetIfPresent(key); ok {
			return res, nil
		}
	}

	// 同键并发解析合并为一次底层管线执行
	v, err, _ := e.group.Do(key, func() (any, error) {
		if e.cache != nil {
			if res, ok := e.cache.GetIfPresent(key); ok {
				return res, nil
			}
		}
		res, err := e.resolveOnce(ctx, key, loaders)
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			e.cache.Set(key, res)
			e.cache.SetExpiresAfter(key, e.cfg.CacheTTL)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolution), nil
}

// resolveOnce 执行一次完整管线：加载 -> 合并 -> 插值 -> 校验。
// 任一阶段失败都直接返回，不更新 last-known-good。
func (e *resolutionEngine) resolveOnce(ctx context.Context, key string, loaders []source.Loader) (*Resolution, error) {
	start := time.Now()

	fragments, err := e.loadAll(ctx, loaders)
	if err != nil {
		return nil, err
	}

	merged, err := merge.Merge(fragments, e.cfg.MergePolicy)
	if err != nil {
		return nil, err
	}

	doc, err := e.interp.Interpolate(merged, &interp.Context{Ctx: ctx, WorkDir: e.cfg.WorkDir})
	if err != nil {
		return nil, err
	}

	result := validate.Validate(doc, e.cfg.Schema, e.cfg.Validation, e.rules...)
	if !result.Success {
		return nil, &ResolutionError{Diagnostics: result.Errors}
	}

	sources := make([]string, len(fragments))
	for i, frag := range fragments {
		sources[i] = frag.Source
	}

	res := &Resolution{
		ID:         uuid.NewString(),
		Doc:        result.Data,
		Sources:    sources,
		Checksum:   Checksum(result.Data),
		ResolvedAt: time.Now(),
		Warnings:   result.Warnings,
	}

	e.mu.Lock()
	e.good[key] = res
	e.cur = res
	e.mu.Unlock()

	e.logger.Debug("resolution complete",
		clog.String("id", res.ID),
		clog.Int("sources", len(sources)),
		clog.Int("warnings", len(res.Warnings)),
		clog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// loadAll 逐个调用加载器。必需源失败直接中止，
// 可选源失败记日志后跳过；全部失败时聚合所有失败原因。
func (e *resolutionEngine) loadAll(ctx context.Context, loaders []source.Loader) ([]merge.Fragment, error) {
	fragments := make([]merge.Fragment, 0, len(loaders))
	var failures []error
	for _, l := range loaders {
		frag, err := e.loadOne(ctx, l)
		if err != nil {
			if l.Required() {
				return nil, err
			}
			e.logger.Warn("optional source skipped",
				clog.String("source", l.Name()), clog.Error(err))
			failures = append(failures, err)
			continue
		}
		fragments = append(fragments, frag)
	}
	if len(fragments) == 0 {
		return nil, xerrors.WithCode(
			xerrors.Wrap(xerrors.Combine(failures...), "all sources failed to load"), CodeSourceLoad)
	}
	return fragments, nil
}

func (e *resolutionEngine) loadOne(ctx context.Context, l source.Loader) (merge.Fragment, error) {
	if e.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.LoadTimeout)
		defer cancel()
	}

	frag, err := l.Load(ctx)
	if err != nil {
		code := CodeSourceLoad
		if xerrors.Is(err, context.DeadlineExceeded) {
			code = CodeNetworkTimeout
		}
		return merge.Fragment{}, xerrors.WithCode(
			xerrors.Wrapf(err, "load source %s", l.Name()), code)
	}
	return frag, nil
}

func (e *resolutionEngine) LastGood(loaders ...source.Loader) (*Resolution, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, ok := e.good[cacheKey(loaders)]
	return res, ok
}

func (e *resolutionEngine) Invalidate(loaders ...source.Loader) {
	if e.cache == nil {
		return
	}
	if len(loaders) > 0 {
		e.cache.Invalidate(cacheKey(loaders))
		return
	}
	e.mu.RLock()
	keys := make([]string, 0, len(e.good))
	for key := range e.good {
		keys = append(keys, key)
	}
	e.mu.RUnlock()
	for _, key := range keys {
		e.cache.Invalidate(key)
	}
}

// cacheKey 对有序的加载器组合做校验和。
// 顺序参与键值：同优先级片段的合并结果依赖输入顺序。
func cacheKey(loaders []source.Loader) string {
	d := xxhash.New()
	for _, l := range loaders {
		_, _ = d.WriteString(l.Name())
		_, _ = d.WriteString("@")
		_, _ = d.WriteString(strconv.Itoa(l.Priority()))
		_, _ = d.WriteString("|")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Checksum 计算文档内容的校验和。
// 文档被拍平成排序后的 path=value 行再做 xxhash，
// 等价文档（无论构造顺序）产出相同的校验和。
func Checksum(doc value.Value) uint64 {
	flat := value.Flatten(doc)
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	d := xxhash.New()
	for _, p := range paths {
		_, _ = d.WriteString(p)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(leafString(flat[p]))
		_, _ = d.WriteString("\n")
	}
	return d.Sum64()
}

// leafString 叶子值的规范文本表示
func leafString(v value.Value) string {
	switch leaf := v.(type) {
	case value.Null:
		return "null"
	case value.Bool:
		return strconv.FormatBool(bool(leaf))
	case value.Number:
		return strconv.FormatFloat(float64(leaf), 'f', -1, 64)
	case value.String:
		return string(leaf)
	case value.Map:
		// Flatten 只在容器为空时把它作为叶子
		return "{}"
	case value.List:
		return "[]"
	default:
		return ""
	}
}

package engine

import (
	"context"
	"time"

	"github.com/ceyewan/cascade/clog"
	"github.com/ceyewan/cascade/source"
	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// defaultWatchInterval 配置未给出 WatchInterval 且缓存被禁用时的轮询间隔
const defaultWatchInterval = 30 * time.Second

// Event 配置变更事件
type Event struct {
	Type      ChangeKind  // 变更类型
	Path      string      // 变化的文档路径
	Value     value.Value // 新值，removed 时为 nil
	OldValue  value.Value // 旧值，added 时为 nil
	Timestamp time.Time
}

// Watch 周期性重新解析加载器组合并推送变更事件。
//
// 首次解析同步完成，失败直接返回错误；之后每个轮询周期
// 重新加载一次，解析失败只记日志并保留上一次成功结果，
// 等待下一轮。context 取消后事件通道被关闭。
func (e *resolutionEngine) Watch(ctx context.Context, loaders ...source.Loader) (<-chan Event, error) {
	if len(loaders) == 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "at least one loader required")
	}

	interval := e.cfg.WatchInterval
	if interval <= 0 {
		interval = e.cfg.CacheTTL
	}
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	base, err := e.Resolve(ctx, loaders...)
	if err != nil {
		return nil, err
	}

	ch := make(chan Event, 16)
	go e.pollLoop(ctx, ch, interval, base, loaders)
	return ch, nil
}

func (e *resolutionEngine) pollLoop(ctx context.Context, ch chan<- Event, interval time.Duration, base *Resolution, loaders []source.Loader) {
	defer close(ch)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	key := cacheKey(loaders)
	prev := base
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// 绕过缓存，强制走完整管线
		e.Invalidate(loaders...)
		next, err := e.Resolve(ctx, loaders...)
		if err != nil {
			// 失败不替换上一次成功结果，等下一轮重试
			e.logger.Warn("watch poll failed",
				clog.String("key", key), clog.Error(err))
			continue
		}
		if next.Checksum == prev.Checksum {
			prev = next
			continue
		}

		now := time.Now()
		for _, chg := range Diff(prev.Doc, next.Doc) {
			ev := Event{
				Type:      chg.Kind,
				Path:      chg.Path,
				Value:     chg.New,
				OldValue:  chg.Old,
				Timestamp: now,
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
		prev = next
	}
}

package source

import (
	"context"
	"time"

	"github.com/ceyewan/cascade/merge"
	"github.com/ceyewan/cascade/value"
)

// memoryLoader 内存片段加载器，用于预设值和 CLI 覆盖
type memoryLoader struct {
	loaderBase
	data value.Value
}

// Memory 创建内存加载器。
//
// data 在构造时即转换为 Value 树并深拷贝，
// 之后调用方修改原 map 不影响加载结果。
func Memory(name string, priority int, data map[string]any, opts ...Option) Loader {
	return &memoryLoader{
		loaderBase: newBase(name, priority, opts...),
		data:       value.FromAny(data),
	}
}

func (l *memoryLoader) Load(_ context.Context) (merge.Fragment, error) {
	return merge.Fragment{
		Source:   l.name,
		Priority: l.priority,
		LoadedAt: time.Now(),
		Data:     value.Clone(l.data),
	}, nil
}

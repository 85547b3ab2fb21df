package engine

import (
	"sort"

	"github.com/ceyewan/cascade/value"
)

// ChangeKind 变更类型
type ChangeKind string

const (
	// ChangeAdded 路径在新文档中出现
	ChangeAdded ChangeKind = "added"
	// ChangeRemoved 路径在新文档中消失
	ChangeRemoved ChangeKind = "removed"
	// ChangeChanged 路径两边都在但值不同
	ChangeChanged ChangeKind = "changed"
)

// Change 单条配置变更
type Change struct {
	Kind ChangeKind
	Path string
	Old  value.Value // Kind 为 added 时为 nil
	New  value.Value // Kind 为 removed 时为 nil
}

// Diff 对比两份文档的叶子值，返回按路径排序的变更列表。
// 容器结构的差异体现在叶子路径的增删上。
func Diff(before, after value.Value) []Change {
	oldFlat := value.Flatten(before)
	newFlat := value.Flatten(after)

	var changes []Change
	for path, oldVal := range oldFlat {
		newVal, ok := newFlat[path]
		if !ok {
			changes = append(changes, Change{Kind: ChangeRemoved, Path: path, Old: oldVal})
			continue
		}
		if !value.Equal(oldVal, newVal) {
			changes = append(changes, Change{Kind: ChangeChanged, Path: path, Old: oldVal, New: newVal})
		}
	}
	for path, newVal := range newFlat {
		if _, ok := oldFlat[path]; !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Path: path, New: newVal})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}

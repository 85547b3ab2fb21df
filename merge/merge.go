// Package merge 提供多来源配置片段的深度合并引擎。
//
// 每个来源产出一个 Fragment（原始配置树 + 优先级），合并时按优先级
// 升序叠加：高优先级片段逐键覆盖低优先级片段。map 与 map 相遇递归
// 合并；标量或类型不一致时高优先级直接胜出（跨来源的类型覆盖是刻意
// 行为，不是错误）；list 的合并策略可配置。
//
// 基本使用：
//
//	doc, _ := merge.Merge([]merge.Fragment{
//	    {Source: "file", Priority: 10, Data: base},
//	    {Source: "env", Priority: 100, Data: overrides},
//	}, nil)
//
// list 策略：
//
//	policy := &merge.Policy{Lists: merge.ListConcat}
//	doc, _ := merge.Merge(fragments, policy)
package merge

import (
	"sort"
	"time"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// Fragment 是单个来源贡献的原始配置片段。
//
// 片段由加载器产出后视为不可变；Merge 不会修改它，
// 输出文档也不会与它共享任何底层存储。
type Fragment struct {
	Source   string      // 来源标识
	Priority int         // 优先级，越大越优先
	LoadedAt time.Time   // 加载时间
	Data     value.Value // 原始配置树
}

// ListStrategy list 值的合并策略
type ListStrategy string

const (
	// ListReplace 高优先级 list 整体胜出（默认）
	ListReplace ListStrategy = "replace"
	// ListConcat 低优先级在前、高优先级在后拼接
	ListConcat ListStrategy = "concat"
	// ListMerge 按下标逐项递归合并，较短一方缺失的尾部取自较长一方
	ListMerge ListStrategy = "merge"
)

// Policy 合并策略，整个合并过程共用一份。
//
// PathOverrides 允许对特定点分路径单独指定 list 策略，
// 未命中的路径使用 Lists。
type Policy struct {
	Lists         ListStrategy
	PathOverrides map[string]ListStrategy
}

// validate 设置默认值并验证策略
func (p *Policy) validate() error {
	if p.Lists == "" {
		p.Lists = ListReplace
	}
	switch p.Lists {
	case ListReplace, ListConcat, ListMerge:
	default:
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown list strategy %q", p.Lists)
	}
	for path, s := range p.PathOverrides {
		switch s {
		case ListReplace, ListConcat, ListMerge:
		default:
			return xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown list strategy %q for path %q", s, path)
		}
	}
	return nil
}

// listStrategyAt 返回指定路径生效的 list 策略
func (p *Policy) listStrategyAt(path value.Path) ListStrategy {
	if len(p.PathOverrides) > 0 {
		if s, ok := p.PathOverrides[path.String()]; ok {
			return s
		}
	}
	return p.Lists
}

// Merge 将一组片段合并为一个文档。
//
// 片段按 Priority 稳定升序排列后依次叠加，输入顺序不影响结果。
// 输出是全新的深拷贝，纯函数，无副作用。
func Merge(fragments []Fragment, policy *Policy) (value.Value, error) {
	if policy == nil {
		policy = &Policy{}
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	// 稳定排序：同优先级时保持输入顺序，后者覆盖前者
	ordered := make([]Fragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var doc value.Value = value.Map{}
	for _, frag := range ordered {
		if frag.Data == nil {
			continue
		}
		doc = mergeValues(doc, frag.Data, nil, policy)
	}
	return value.Clone(doc), nil
}

// mergeValues 合并低优先级 base 与高优先级 over，返回新值
func mergeValues(base, over value.Value, path value.Path, policy *Policy) value.Value {
	baseMap, baseIsMap := base.(value.Map)
	overMap, overIsMap := over.(value.Map)
	if baseIsMap && overIsMap {
		out := make(value.Map, len(baseMap)+len(overMap))
		for k, v := range baseMap {
			out[k] = value.Clone(v)
		}
		for k, v := range overMap {
			if existing, ok := out[k]; ok {
				out[k] = mergeValues(existing, v, path.Child(k), policy)
			} else {
				out[k] = value.Clone(v)
			}
		}
		return out
	}

	baseList, baseIsList := base.(value.List)
	overList, overIsList := over.(value.List)
	if baseIsList && overIsList {
		switch policy.listStrategyAt(path) {
		case ListConcat:
			out := make(value.List, 0, len(baseList)+len(overList))
			for _, v := range baseList {
				out = append(out, value.Clone(v))
			}
			for _, v := range overList {
				out = append(out, value.Clone(v))
			}
			return out
		case ListMerge:
			size := len(baseList)
			if len(overList) > size {
				size = len(overList)
			}
			out := make(value.List, size)
			for i := 0; i < size; i++ {
				switch {
				case i >= len(baseList):
					out[i] = value.Clone(overList[i])
				case i >= len(overList):
					out[i] = value.Clone(baseList[i])
				default:
					out[i] = mergeValues(baseList[i], overList[i], path.At(i), policy)
				}
			}
			return out
		default:
			return value.Clone(over)
		}
	}

	// 标量对标量、或类型不一致：高优先级胜出
	return value.Clone(over)
}

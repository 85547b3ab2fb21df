package value

import (
	"sort"

	"github.com/ceyewan/cascade/xerrors"
)

// Get 按点分路径读取文档中的值。
//
// 路径不存在时返回 xerrors.ErrNotFound。
func Get(doc Value, path string) (Value, error) {
	return GetPath(doc, ParsePath(path))
}

// GetPath 按 Path 读取文档中的值
func GetPath(doc Value, path Path) (Value, error) {
	cur := doc
	for _, seg := range path {
		switch node := cur.(type) {
		case Map:
			if seg.IsIndex {
				return nil, xerrors.Wrapf(xerrors.ErrNotFound, "path %s: index into map", path)
			}
			next, ok := node[seg.Key]
			if !ok {
				return nil, xerrors.Wrapf(xerrors.ErrNotFound, "path %s: missing key %q", path, seg.Key)
			}
			cur = next
		case List:
			if !seg.IsIndex {
				return nil, xerrors.Wrapf(xerrors.ErrNotFound, "path %s: key into list", path)
			}
			if seg.Index < 0 || seg.Index >= len(node) {
				return nil, xerrors.Wrapf(xerrors.ErrNotFound, "path %s: index %d out of range", path, seg.Index)
			}
			cur = node[seg.Index]
		default:
			return nil, xerrors.Wrapf(xerrors.ErrNotFound, "path %s: descend into %s", path, cur.Kind())
		}
	}
	return cur, nil
}

// GetOr 按点分路径读取值，不存在时返回默认值
func GetOr(doc Value, path string, def Value) Value {
	v, err := Get(doc, path)
	if err != nil {
		return def
	}
	return v
}

// Has 判断点分路径是否存在
func Has(doc Value, path string) bool {
	_, err := Get(doc, path)
	return err == nil
}

// Set 返回在点分路径处写入 v 的新文档，原文档不被修改。
//
// 中间缺失的 map 节点会自动创建；路径中途遇到标量会被替换为 map。
// 对 list 的下标写入要求下标已存在。
func Set(doc Value, path string, v Value) (Value, error) {
	segs := ParsePath(path)
	if len(segs) == 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "empty path")
	}
	return setPath(doc, segs, v)
}

func setPath(doc Value, path Path, v Value) (Value, error) {
	if len(path) == 0 {
		return Clone(v), nil
	}
	seg := path[0]

	if seg.IsIndex {
		list, ok := doc.(List)
		if !ok {
			return nil, xerrors.Wrapf(xerrors.ErrInvalidInput, "index %d into %s", seg.Index, kindOf(doc))
		}
		if seg.Index < 0 || seg.Index >= len(list) {
			return nil, xerrors.Wrapf(xerrors.ErrInvalidInput, "index %d out of range", seg.Index)
		}
		out := make(List, len(list))
		for i, item := range list {
			out[i] = Clone(item)
		}
		child, err := setPath(out[seg.Index], path[1:], v)
		if err != nil {
			return nil, err
		}
		out[seg.Index] = child
		return out, nil
	}

	m, ok := doc.(Map)
	if !ok {
		// 路径中途的标量被替换为新 map
		m = Map{}
	}
	out := make(Map, len(m)+1)
	for k, item := range m {
		out[k] = Clone(item)
	}
	child, err := setPath(out[seg.Key], path[1:], v)
	if err != nil {
		return nil, err
	}
	out[seg.Key] = child
	return out, nil
}

// Delete 返回删除点分路径后的新文档，原文档不被修改。
//
// 路径不存在时返回 xerrors.ErrNotFound。
func Delete(doc Value, path string) (Value, error) {
	segs := ParsePath(path)
	if len(segs) == 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "empty path")
	}
	if !Has(doc, path) {
		return nil, xerrors.Wrapf(xerrors.ErrNotFound, "path %s", path)
	}
	return deletePath(doc, segs)
}

func deletePath(doc Value, path Path) (Value, error) {
	seg := path[0]

	if seg.IsIndex {
		list := doc.(List)
		if len(path) == 1 {
			out := make(List, 0, len(list)-1)
			for i, item := range list {
				if i == seg.Index {
					continue
				}
				out = append(out, Clone(item))
			}
			return out, nil
		}
		out := make(List, len(list))
		for i, item := range list {
			out[i] = Clone(item)
		}
		child, err := deletePath(out[seg.Index], path[1:])
		if err != nil {
			return nil, err
		}
		out[seg.Index] = child
		return out, nil
	}

	m := doc.(Map)
	out := make(Map, len(m))
	for k, item := range m {
		out[k] = Clone(item)
	}
	if len(path) == 1 {
		delete(out, seg.Key)
		return out, nil
	}
	child, err := deletePath(out[seg.Key], path[1:])
	if err != nil {
		return nil, err
	}
	out[seg.Key] = child
	return out, nil
}

// Flatten 将文档压平为 点分路径 -> 叶子值 的映射。
//
// 空的 Map/List 以容器本身作为叶子记录，保证 diff 能看到它们。
func Flatten(doc Value) map[string]Value {
	out := make(map[string]Value)
	flattenInto(doc, nil, out)
	return out
}

func flattenInto(v Value, path Path, out map[string]Value) {
	switch v := v.(type) {
	case Map:
		if len(v) == 0 {
			out[path.String()] = v
			return
		}
		for k, item := range v {
			flattenInto(item, path.Child(k), out)
		}
	case List:
		if len(v) == 0 {
			out[path.String()] = v
			return
		}
		for i, item := range v {
			flattenInto(item, path.At(i), out)
		}
	default:
		out[path.String()] = v
	}
}

// SortedKeys 返回 Map 的有序键列表，供确定性遍历使用
func SortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

package value

import (
	"strconv"
	"strings"
)

// Segment 是 Path 中的一段：map 的键或 list 的下标
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// KeySegment 创建键段
func KeySegment(key string) Segment {
	return Segment{Key: key}
}

// IndexSegment 创建下标段
func IndexSegment(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// Path 定位文档中的一个位置，合并冲突报告、
// 循环检测和校验错误都使用同一种 Path 表示。
type Path []Segment

// Child 返回追加一个键段的新 Path（不修改原 Path）
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, KeySegment(key))
}

// At 返回追加一个下标段的新 Path
func (p Path) At(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, IndexSegment(i))
}

// String 渲染为点分形式，下标用 [i] 表示：a.b[0].c
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if seg.IsIndex {
			sb.WriteString("[")
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteString("]")
			continue
		}
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(seg.Key)
	}
	return sb.String()
}

// ParsePath 解析点分路径，支持 [n] 下标：
//
//	ParsePath("servers[0].host") // => servers, [0], host
func ParsePath(s string) Path {
	var path Path
	if s == "" {
		return path
	}
	for _, part := range strings.Split(s, ".") {
		// 拆出键名后缀的 [n] 下标
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					path = append(path, KeySegment(part))
				}
				break
			}
			if open > 0 {
				path = append(path, KeySegment(part[:open]))
			}
			close := strings.IndexByte(part, ']')
			if close < open {
				// 不成对的括号，按字面键处理
				path = append(path, KeySegment(part[open:]))
				break
			}
			if idx, err := strconv.Atoi(part[open+1 : close]); err == nil {
				path = append(path, IndexSegment(idx))
			} else {
				path = append(path, KeySegment(part[open:close+1]))
			}
			part = part[close+1:]
			if part == "" {
				break
			}
		}
	}
	return path
}

package engine

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// OutputFormat 文档渲染格式
type OutputFormat string

const (
	// FormatJSON 两空格缩进的 JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML YAML 文档
	FormatYAML OutputFormat = "yaml"
	// FormatFlat 排序后的 path = value 行
	FormatFlat OutputFormat = "flat"
)

// FormatOptions 渲染选项
type FormatOptions struct {
	// Format 输出格式，默认 yaml
	Format OutputFormat
	// HideSecrets 为 true 时 Config.Secrets 列出的路径被打码
	HideSecrets bool
	// MaxDepth 大于 0 时超过该深度的容器折叠为占位符
	MaxDepth int
}

// maskedValue 密钥路径的打码占位文本
const maskedValue = "******"

// Format 把文档渲染为人类可读的文本。
// 输入文档不被修改。
func (e *resolutionEngine) Format(doc value.Value, opts *FormatOptions) (string, error) {
	if opts == nil {
		opts = &FormatOptions{}
	}
	format := opts.Format
	if format == "" {
		format = FormatYAML
	}

	work := value.Clone(doc)
	if opts.HideSecrets {
		for _, path := range e.cfg.Secrets {
			if !value.Has(work, path) {
				continue
			}
			masked, err := value.Set(work, path, value.String(maskedValue))
			if err != nil {
				return "", xerrors.Wrapf(err, "mask secret path %s", path)
			}
			work = masked
		}
	}
	if opts.MaxDepth > 0 {
		work = truncateDepth(work, opts.MaxDepth)
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(value.ToAny(work), "", "  ")
		if err != nil {
			return "", xerrors.Wrap(err, "render json")
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(value.ToAny(work))
		if err != nil {
			return "", xerrors.Wrap(err, "render yaml")
		}
		return string(data), nil
	case FormatFlat:
		return renderFlat(work), nil
	default:
		return "", xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown format %q", format)
	}
}

// renderFlat 渲染排序后的 path = value 行
func renderFlat(doc value.Value) string {
	flat := value.Flatten(doc)
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteString(" = ")
		sb.WriteString(leafString(flat[p]))
		sb.WriteString("\n")
	}
	return sb.String()
}

// truncateDepth 把超过 depth 层的容器折叠为占位符
func truncateDepth(v value.Value, depth int) value.Value {
	switch node := v.(type) {
	case value.Map:
		if depth <= 0 {
			return value.String("{...}")
		}
		out := make(value.Map, len(node))
		for k, child := range node {
			out[k] = truncateDepth(child, depth-1)
		}
		return out
	case value.List:
		if depth <= 0 {
			return value.String("[...]")
		}
		out := make(value.List, len(node))
		for i, child := range node {
			out[i] = truncateDepth(child, depth-1)
		}
		return out
	default:
		return v
	}
}

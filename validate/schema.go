package validate

import (
	"regexp"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// FieldType 字段的期望类型
type FieldType string

const (
	TypeAny    FieldType = "any"
	TypeBool   FieldType = "bool"
	TypeNumber FieldType = "number"
	TypeString FieldType = "string"
	TypeList   FieldType = "list"
	TypeMap    FieldType = "map"
)

// Field 单个字段的约束声明。
//
// Min/Max 约束数值，MinLen/MaxLen 约束字符串长度和 list 长度，
// Pattern 是字符串的正则约束，Enum 限定取值集合。
// Fields 声明嵌套 map 的形状，Items 声明 list 元素的约束。
type Field struct {
	Type     FieldType
	Required bool
	Min      *float64
	Max      *float64
	MinLen   *int
	MaxLen   *int
	Pattern  string
	Enum     []value.Value
	Fields   map[string]*Field
	Items    *Field

	pattern *regexp.Regexp // 编译后的 Pattern 缓存
}

// Schema 文档的形状声明，顶层是一组命名字段
type Schema struct {
	Fields map[string]*Field
}

// NewSchema 创建 Schema 并预编译所有正则约束
func NewSchema(fields map[string]*Field) (*Schema, error) {
	s := &Schema{Fields: fields}
	if err := compileFields(fields); err != nil {
		return nil, err
	}
	return s, nil
}

func compileFields(fields map[string]*Field) error {
	for name, f := range fields {
		if f == nil {
			return xerrors.Wrapf(xerrors.ErrInvalidInput, "field %q is nil", name)
		}
		if f.Type == "" {
			f.Type = TypeAny
		}
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return xerrors.Wrapf(xerrors.ErrInvalidInput, "field %q: bad pattern: %v", name, err)
			}
			f.pattern = re
		}
		if f.Fields != nil {
			if err := compileFields(f.Fields); err != nil {
				return err
			}
		}
		if f.Items != nil {
			if err := compileFields(map[string]*Field{name + "[]": f.Items}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Partial 返回顶层字段全部可选的 Schema 视图，
// 用于只提交子树的增量校验场景。
func (s *Schema) Partial() *Schema {
	fields := make(map[string]*Field, len(s.Fields))
	for name, f := range s.Fields {
		cp := *f
		cp.Required = false
		fields[name] = &cp
	}
	return &Schema{Fields: fields}
}

// Validate 以默认选项运行校验，使 Schema 满足 Validator 接口
func (s *Schema) Validate(doc value.Value) *Result {
	return Validate(doc, s, nil)
}

// Validator 是校验管线消费的外部校验器契约。
//
// 任何暴露 parse/safeParse 形状的校验器都可以适配成该接口，
// 本包的 Schema 自身就是一个 Validator。
type Validator interface {
	Validate(doc value.Value) *Result
}

// ValidatorFunc 函数式 Validator 适配器
type ValidatorFunc func(doc value.Value) *Result

// Validate 调用底层函数
func (f ValidatorFunc) Validate(doc value.Value) *Result {
	return f(doc)
}

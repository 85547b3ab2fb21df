// Package validate 提供配置文档的校验管线。
//
// 管线先按 Schema 做类型/必填/范围检查，再按优先级降序运行自定义
// 规则。所有失败都被穷尽收集成结构化的 Diagnostic（带路径、诊断码、
// 级别），一次调用暴露全部问题，绝不快速失败。
//
// error 级诊断使 Result.Success=false 且 Data 为空；
// warning 级诊断只做提示，不阻断文档接受。
//
// 基本使用：
//
//	schema, _ := validate.NewSchema(map[string]*validate.Field{
//	    "port": {Type: validate.TypeNumber, Required: true},
//	    "host": {Type: validate.TypeString},
//	})
//	result := validate.Validate(doc, schema, &validate.Options{Coerce: true})
//	for _, d := range result.Errors {
//	    fmt.Println(d)
//	}
package validate

import (
	"sort"

	"github.com/spf13/cast"

	"github.com/ceyewan/cascade/value"
)

// Options 校验选项
type Options struct {
	// Strict 为 true 时未声明的键是 error，否则是 warning
	Strict bool
	// Coerce 为 true 时兼容的原始类型会被转换而不是拒绝
	Coerce bool
	// StripUnknown 为 true 时未声明的键被静默丢弃（无诊断）。
	// 优先级高于 Strict：两者同时开启时键仍被丢弃，不产生诊断。
	StripUnknown bool
}

// Validate 对文档运行完整校验管线。
//
// schema 为 nil 时跳过形状检查，只运行自定义规则。
// 输出的 Data 是经过 coerce/strip 的新文档，输入不被修改。
func Validate(doc value.Value, schema *Schema, opts *Options, rules ...Rule) *Result {
	if opts == nil {
		opts = &Options{}
	}

	out := value.Clone(doc)
	c := &collector{}

	if schema != nil {
		if m, ok := out.(value.Map); ok {
			validateMap(m, schema.Fields, nil, opts, c)
		} else {
			c.errorf(nil, CodeInvalidType, "expected map document, got %s", kindName(out))
		}
	}

	runRules(out, rules, c)

	return c.result(out)
}

// ValidatePartial 同一管线，但顶层字段全部按可选处理，
// 用于只提交配置子树的增量更新。
func ValidatePartial(doc value.Value, schema *Schema, opts *Options, rules ...Rule) *Result {
	if schema != nil {
		schema = schema.Partial()
	}
	return Validate(doc, schema, opts, rules...)
}

// validateMap 校验一个 map 层级：声明字段逐个检查，未声明键按选项处理
func validateMap(m value.Map, fields map[string]*Field, path value.Path, opts *Options, c *collector) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := fields[name]
		fieldPath := path.Child(name)
		v, ok := m[name]
		if !ok {
			if field.Required {
				c.errorf(fieldPath, CodeRequiredField, "required field is missing")
			}
			continue
		}
		if replaced, keep := checkField(v, field, fieldPath, opts, c); keep {
			m[name] = replaced
		}
	}

	// 未声明键
	for _, key := range value.SortedKeys(m) {
		if _, declared := fields[key]; declared {
			continue
		}
		keyPath := path.Child(key)
		switch {
		case opts.StripUnknown:
			delete(m, key)
		case opts.Strict:
			c.errorf(keyPath, CodeUnknownProperty, "property is not declared in schema")
		default:
			c.warnf(keyPath, CodeUnknownProperty, "property is not declared in schema")
		}
	}
}

// checkField 校验单个值；返回（可能被 coerce 的）新值和是否需要回写
func checkField(v value.Value, field *Field, path value.Path, opts *Options, c *collector) (value.Value, bool) {
	coerced, ok := coerceType(v, field.Type, opts.Coerce)
	if !ok {
		if opts.Coerce && coercible(v, field.Type) {
			c.errorf(path, CodeCoercionFailed, "cannot coerce %s to %s: %v", kindName(v), field.Type, value.ToAny(v))
		} else {
			c.errorf(path, CodeInvalidType, "expected %s, got %s (%v)", field.Type, kindName(v), value.ToAny(v))
		}
		return v, false
	}
	v = coerced

	switch tv := v.(type) {
	case value.Number:
		n := float64(tv)
		if field.Min != nil && n < *field.Min {
			c.errorf(path, CodeOutOfRange, "value %v is below minimum %v", n, *field.Min)
		}
		if field.Max != nil && n > *field.Max {
			c.errorf(path, CodeOutOfRange, "value %v is above maximum %v", n, *field.Max)
		}
	case value.String:
		s := string(tv)
		if field.MinLen != nil && len(s) < *field.MinLen {
			c.errorf(path, CodeOutOfRange, "length %d is below minimum %d", len(s), *field.MinLen)
		}
		if field.MaxLen != nil && len(s) > *field.MaxLen {
			c.errorf(path, CodeOutOfRange, "length %d is above maximum %d", len(s), *field.MaxLen)
		}
		if field.pattern != nil && !field.pattern.MatchString(s) {
			c.errorf(path, CodeInvalidFormat, "value %q does not match pattern %s", s, field.Pattern)
		}
	case value.List:
		if field.MinLen != nil && len(tv) < *field.MinLen {
			c.errorf(path, CodeOutOfRange, "list length %d is below minimum %d", len(tv), *field.MinLen)
		}
		if field.MaxLen != nil && len(tv) > *field.MaxLen {
			c.errorf(path, CodeOutOfRange, "list length %d is above maximum %d", len(tv), *field.MaxLen)
		}
		if field.Items != nil {
			for i, item := range tv {
				if replaced, keep := checkField(item, field.Items, path.At(i), opts, c); keep {
					tv[i] = replaced
				}
			}
		}
	case value.Map:
		if field.Fields != nil {
			validateMap(tv, field.Fields, path, opts, c)
		}
	}

	if len(field.Enum) > 0 {
		found := false
		for _, allowed := range field.Enum {
			if value.Equal(v, allowed) {
				found = true
				break
			}
		}
		if !found {
			c.errorf(path, CodeInvalidFormat, "value %v is not one of the allowed values", value.ToAny(v))
		}
	}

	return v, true
}

// coerceType 检查类型并在允许时转换兼容的原始类型
func coerceType(v value.Value, want FieldType, coerce bool) (value.Value, bool) {
	if want == TypeAny || want == "" {
		return v, true
	}
	if matchesType(v, want) {
		return v, true
	}
	if !coerce {
		return v, false
	}

	switch want {
	case TypeNumber:
		if s, ok := v.(value.String); ok {
			if n, err := cast.ToFloat64E(string(s)); err == nil {
				return value.Number(n), true
			}
		}
		if b, ok := v.(value.Bool); ok {
			if b {
				return value.Number(1), true
			}
			return value.Number(0), true
		}
	case TypeString:
		switch tv := v.(type) {
		case value.Number, value.Bool:
			if s, err := cast.ToStringE(value.ToAny(tv)); err == nil {
				return value.String(s), true
			}
		}
	case TypeBool:
		if s, ok := v.(value.String); ok {
			if b, err := cast.ToBoolE(string(s)); err == nil {
				return value.Bool(b), true
			}
		}
		if n, ok := v.(value.Number); ok {
			return value.Bool(n != 0), true
		}
	}
	return v, false
}

// coercible 判断类型组合是否属于"本可转换"的兼容对
func coercible(v value.Value, want FieldType) bool {
	switch want {
	case TypeNumber, TypeBool:
		_, isStr := v.(value.String)
		_, isNum := v.(value.Number)
		_, isBool := v.(value.Bool)
		return isStr || isNum || isBool
	case TypeString:
		_, isNum := v.(value.Number)
		_, isBool := v.(value.Bool)
		return isNum || isBool
	default:
		return false
	}
}

func matchesType(v value.Value, want FieldType) bool {
	switch want {
	case TypeBool:
		return v.Kind() == value.KindBool
	case TypeNumber:
		return v.Kind() == value.KindNumber
	case TypeString:
		return v.Kind() == value.KindString
	case TypeList:
		return v.Kind() == value.KindList
	case TypeMap:
		return v.Kind() == value.KindMap
	default:
		return true
	}
}

func kindName(v value.Value) string {
	if v == nil {
		return value.KindNull.String()
	}
	return v.Kind().String()
}

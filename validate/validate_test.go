package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func testSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := NewSchema(map[string]*Field{
		"name": {Type: TypeString, Required: true, MinLen: intPtr(1)},
		"port": {Type: TypeNumber, Min: floatPtr(1), Max: floatPtr(65535)},
		"mode": {Type: TypeString, Enum: []value.Value{value.String("dev"), value.String("prod")}},
		"db": {Type: TypeMap, Fields: map[string]*Field{
			"host": {Type: TypeString, Required: true},
		}},
		"tags": {Type: TypeList, Items: &Field{Type: TypeString}},
	})
	require.NoError(t, err)
	return schema
}

// TestValidDocument 测试合法文档通过
func TestValidDocument(t *testing.T) {
	doc := value.Map{
		"name": value.String("demo"),
		"port": value.Number(8080),
		"mode": value.String("dev"),
		"db":   value.Map{"host": value.String("localhost")},
		"tags": value.List{value.String("a"), value.String("b")},
	}

	result := Validate(doc, testSchema(t), nil)
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.NotNil(t, result.Data)
}

// TestExhaustiveCollection 测试两处独立违规产出两条 error 诊断
func TestExhaustiveCollection(t *testing.T) {
	doc := value.Map{
		"name": value.String("demo"),
		"port": value.Number(99999),        // 超出 Max
		"mode": value.String("staging"),    // 不在 Enum
		"db":   value.Map{"host": value.String("h")},
	}

	result := Validate(doc, testSchema(t), nil)
	assert.False(t, result.Success)
	assert.Nil(t, result.Data)
	require.Len(t, result.Errors, 2, "两处独立违规应该都被报告")

	codes := []string{result.Errors[0].Code, result.Errors[1].Code}
	assert.Contains(t, codes, CodeOutOfRange)
	assert.Contains(t, codes, CodeInvalidFormat)
}

// TestRequiredField 测试必填字段缺失
func TestRequiredField(t *testing.T) {
	doc := value.Map{"port": value.Number(80), "db": value.Map{}}

	result := Validate(doc, testSchema(t), nil)
	assert.False(t, result.Success)

	var codes []string
	var paths []string
	for _, d := range result.Errors {
		codes = append(codes, d.Code)
		paths = append(paths, d.Path.String())
	}
	assert.Contains(t, codes, CodeRequiredField)
	assert.Contains(t, paths, "name")
	assert.Contains(t, paths, "db.host", "嵌套必填字段也应该检查")
}

// TestStrictVsLenient 测试未声明键在两种模式下的级别
func TestStrictVsLenient(t *testing.T) {
	doc := value.Map{
		"name":  value.String("demo"),
		"db":    value.Map{"host": value.String("h")},
		"extra": value.String("surprise"),
	}

	strict := Validate(doc, testSchema(t), &Options{Strict: true})
	assert.False(t, strict.Success)
	require.Len(t, strict.Errors, 1)
	assert.Equal(t, CodeUnknownProperty, strict.Errors[0].Code)

	lenient := Validate(doc, testSchema(t), &Options{Strict: false})
	assert.True(t, lenient.Success, "warning 不应该影响 Success")
	require.Len(t, lenient.Warnings, 1)
	assert.Equal(t, CodeUnknownProperty, lenient.Warnings[0].Code)
	// 宽松模式下未声明键原样保留
	assert.True(t, value.Has(lenient.Data, "extra"))
}

// TestStripUnknown 测试静默丢弃未声明键
func TestStripUnknown(t *testing.T) {
	doc := value.Map{
		"name":  value.String("demo"),
		"db":    value.Map{"host": value.String("h")},
		"extra": value.String("surprise"),
	}

	result := Validate(doc, testSchema(t), &Options{StripUnknown: true})
	assert.True(t, result.Success)
	assert.Empty(t, result.Warnings, "strip 时不产出诊断")
	assert.False(t, value.Has(result.Data, "extra"))
	// 输入文档不被修改
	assert.True(t, value.Has(doc, "extra"))
}

// TestStripUnknownOverridesStrict 测试 StripUnknown 的优先级高于 Strict：
// 同时开启时未声明键仍被静默丢弃，不产生任何诊断
func TestStripUnknownOverridesStrict(t *testing.T) {
	doc := value.Map{
		"name":  value.String("demo"),
		"db":    value.Map{"host": value.String("h")},
		"extra": value.String("surprise"),
	}

	result := Validate(doc, testSchema(t), &Options{Strict: true, StripUnknown: true})
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.False(t, value.Has(result.Data, "extra"))
}

// TestCoerce 测试兼容类型转换
func TestCoerce(t *testing.T) {
	doc := value.Map{
		"name": value.String("demo"),
		"port": value.String("8080"), // 数字字符串
		"db":   value.Map{"host": value.String("h")},
	}

	// 不开 coerce：类型错误
	result := Validate(doc, testSchema(t), nil)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeInvalidType, result.Errors[0].Code)

	// 开 coerce：转换成功
	result = Validate(doc, testSchema(t), &Options{Coerce: true})
	assert.True(t, result.Success)
	assert.Equal(t, value.Number(8080), value.GetOr(result.Data, "port", nil))

	// coerce 失败仍是 error
	doc["port"] = value.String("not-a-number")
	result = Validate(doc, testSchema(t), &Options{Coerce: true})
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeCoercionFailed, result.Errors[0].Code)
}

// TestPatternAndLength 测试字符串格式约束
func TestPatternAndLength(t *testing.T) {
	schema, err := NewSchema(map[string]*Field{
		"id": {Type: TypeString, Pattern: `^[a-z]+-\d+$`, MaxLen: intPtr(10)},
	})
	require.NoError(t, err)

	result := Validate(value.Map{"id": value.String("svc-42")}, schema, nil)
	assert.True(t, result.Success)

	result = Validate(value.Map{"id": value.String("BAD")}, schema, nil)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeInvalidFormat, result.Errors[0].Code)

	result = Validate(value.Map{"id": value.String("toolong-12345")}, schema, nil)
	assert.False(t, result.Success)
}

// TestListItems 测试 list 元素约束与错误路径
func TestListItems(t *testing.T) {
	doc := value.Map{
		"name": value.String("demo"),
		"db":   value.Map{"host": value.String("h")},
		"tags": value.List{value.String("ok"), value.Number(1)},
	}

	result := Validate(doc, testSchema(t), nil)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "tags[1]", result.Errors[0].Path.String())
	assert.Equal(t, CodeInvalidType, result.Errors[0].Code)
}

// TestValidatePartial 测试顶层必填被放宽
func TestValidatePartial(t *testing.T) {
	// 只提交 port 子树，缺失 name/db 不报错
	doc := value.Map{"port": value.Number(9090)}

	result := ValidatePartial(doc, testSchema(t), nil)
	assert.True(t, result.Success, "errors: %v", result.Errors)

	// 提交的部分仍然要通过检查
	bad := value.Map{"port": value.Number(-1)}
	result = ValidatePartial(bad, testSchema(t), nil)
	assert.False(t, result.Success)
}

// TestRules 测试自定义规则的优先级与变换语义
func TestRules(t *testing.T) {
	doc := value.Map{"host": value.String("  spaces  ")}
	var order []string

	trim := Rule{
		Name:     "trim-host",
		Priority: 10,
		Path:     "host",
		Check: func(v value.Value, _ value.Path, _ value.Value) (value.Value, error) {
			order = append(order, "trim")
			return value.String("spaces"), nil
		},
	}
	audit := Rule{
		Name:     "audit",
		Priority: 5,
		Check: func(v value.Value, _ value.Path, _ value.Value) (value.Value, error) {
			order = append(order, "audit")
			return nil, nil
		},
	}

	result := Validate(doc, nil, nil, audit, trim)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"trim", "audit"}, order, "规则按优先级降序运行")
	assert.Equal(t, value.String("spaces"), value.GetOr(result.Data, "host", nil))
}

// TestRuleFailure 测试规则失败产出诊断且不阻断其他规则
func TestRuleFailure(t *testing.T) {
	doc := value.Map{"a": value.Number(1), "b": value.Number(2)}
	ran := 0

	failing := Rule{
		Name: "always-fail", Priority: 10, Path: "a",
		Check: func(value.Value, value.Path, value.Value) (value.Value, error) {
			ran++
			return nil, xerrors.New("a is cursed")
		},
	}
	passing := Rule{
		Name: "pass", Priority: 1, Path: "b",
		Check: func(value.Value, value.Path, value.Value) (value.Value, error) {
			ran++
			return nil, nil
		},
	}

	result := Validate(doc, nil, nil, failing, passing)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeRuleFailed, result.Errors[0].Code)
	assert.Equal(t, "a", result.Errors[0].Path.String())
	assert.Equal(t, 2, ran, "失败的规则不应该阻断其他规则")
}

// TestSchemaFailureDoesNotBlockRules 测试无关路径的 Schema 失败不影响规则
func TestSchemaFailureDoesNotBlockRules(t *testing.T) {
	doc := value.Map{
		"db": value.Map{"host": value.String("h")},
		// name 缺失 -> REQUIRED_FIELD
		"port": value.Number(80),
	}
	ruleRan := false

	r := Rule{
		Name: "port-check", Path: "port",
		Check: func(value.Value, value.Path, value.Value) (value.Value, error) {
			ruleRan = true
			return nil, nil
		},
	}

	result := Validate(doc, testSchema(t), nil, r)
	assert.False(t, result.Success)
	assert.True(t, ruleRan, "无关路径的 Schema 失败不应该阻断规则")
}

// TestValidatorAdapter 测试外部校验器适配
func TestValidatorAdapter(t *testing.T) {
	var v Validator = testSchema(t)
	result := v.Validate(value.Map{
		"name": value.String("x"),
		"db":   value.Map{"host": value.String("h")},
	})
	assert.True(t, result.Success)

	custom := ValidatorFunc(func(doc value.Value) *Result {
		c := &collector{}
		c.errorf(nil, CodeRuleFailed, "rejected")
		return c.result(doc)
	})
	assert.False(t, custom.Validate(value.Map{}).Success)
}

// TestBadSchema 测试非法 Schema 构造报错
func TestBadSchema(t *testing.T) {
	_, err := NewSchema(map[string]*Field{
		"x": {Type: TypeString, Pattern: "("},
	})
	assert.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}

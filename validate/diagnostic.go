package validate

import (
	"fmt"

	"github.com/ceyewan/cascade/value"
)

// Severity 诊断级别
type Severity string

const (
	// SeverityError 阻断级：文档不被接受
	SeverityError Severity = "error"
	// SeverityWarning 提示级：不影响文档接受
	SeverityWarning Severity = "warning"
)

// 校验诊断码
const (
	CodeInvalidType     = "INVALID_TYPE"
	CodeRequiredField   = "REQUIRED_FIELD"
	CodeUnknownProperty = "UNKNOWN_PROPERTY"
	CodeOutOfRange      = "OUT_OF_RANGE"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeCoercionFailed  = "COERCION_FAILED"
	CodeRuleFailed      = "RULE_FAILED"
)

// Diagnostic 一条结构化的校验诊断
type Diagnostic struct {
	Path     value.Path
	Code     string
	Message  string
	Severity Severity
}

// String 渲染为 "severity [CODE] path: message"
func (d Diagnostic) String() string {
	p := d.Path.String()
	if p == "" {
		p = "(root)"
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, p, d.Message)
}

// Result 一次校验的完整结果。
//
// 存在任何 error 级诊断时 Success 为 false 且 Data 为 nil；
// 仅有 warning 不影响 Success。
type Result struct {
	Success  bool
	Data     value.Value // 经过 coerce/strip 的输出文档
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// collector 诊断收集器（内部使用），穷尽收集、绝不短路
type collector struct {
	errors   []Diagnostic
	warnings []Diagnostic
}

func (c *collector) add(path value.Path, code, message string, severity Severity) {
	d := Diagnostic{Path: path, Code: code, Message: message, Severity: severity}
	if severity == SeverityError {
		c.errors = append(c.errors, d)
	} else {
		c.warnings = append(c.warnings, d)
	}
}

func (c *collector) errorf(path value.Path, code, format string, args ...any) {
	c.add(path, code, fmt.Sprintf(format, args...), SeverityError)
}

func (c *collector) warnf(path value.Path, code, format string, args ...any) {
	c.add(path, code, fmt.Sprintf(format, args...), SeverityWarning)
}

func (c *collector) result(data value.Value) *Result {
	res := &Result{
		Success:  len(c.errors) == 0,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if res.Success {
		res.Data = data
	}
	return res
}

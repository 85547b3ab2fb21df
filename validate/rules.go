package validate

import (
	"sort"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// Rule 自定义校验规则，在 Schema 检查之后运行。
//
// Path 非空时规则只收到该点分路径处的值（路径缺失则跳过），
// 否则收到整个文档。Check 返回非 nil 值时该值替换原值
// （transformed-value 语义），返回错误时产出一条 error 级诊断。
type Rule struct {
	Name     string
	Priority int    // 越大越先运行
	Path     string // 可选：限定规则作用的点分路径
	Check    func(v value.Value, path value.Path, doc value.Value) (value.Value, error)
}

// runRules 按优先级降序运行全部规则。
//
// Schema 检查在无关路径上的失败不会阻止规则运行，
// 规则失败也不会阻止后续规则，保持诊断穷尽。
func runRules(doc value.Value, rules []Rule, c *collector) {
	if len(rules) == 0 {
		return
	}

	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, rule := range ordered {
		if rule.Check == nil {
			continue
		}

		target := doc
		rulePath := value.ParsePath(rule.Path)
		if rule.Path != "" {
			v, err := value.GetPath(doc, rulePath)
			if err != nil {
				// 规则目标不存在：交给 Schema 的 Required 检查，规则跳过
				continue
			}
			target = v
		}

		replaced, err := rule.Check(target, rulePath, doc)
		if err != nil {
			code := xerrors.GetCode(err)
			if code == "" {
				code = CodeRuleFailed
			}
			c.errorf(rulePath, code, "rule %q: %v", rule.Name, err)
			continue
		}
		if replaced != nil && rule.Path != "" {
			setRuleResult(doc, rulePath, replaced)
		}
	}
}

// setRuleResult 把规则的变换结果写回工作文档（私有深拷贝）
func setRuleResult(doc value.Value, path value.Path, v value.Value) {
	if len(path) == 0 {
		return
	}
	cur := doc
	for _, seg := range path[:len(path)-1] {
		switch node := cur.(type) {
		case value.Map:
			cur = node[seg.Key]
		case value.List:
			if seg.Index < 0 || seg.Index >= len(node) {
				return
			}
			cur = node[seg.Index]
		default:
			return
		}
	}
	last := path[len(path)-1]
	switch node := cur.(type) {
	case value.Map:
		node[last.Key] = v
	case value.List:
		if last.Index >= 0 && last.Index < len(node) {
			node[last.Index] = v
		}
	}
}

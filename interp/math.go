package interp

import (
	"strconv"
	"strings"
)

// resolveMath 受限整数算术求值。
//
// 文法：整数、+ - * /、圆括号，标准优先级，同级左结合。
// 求值前先做字符白名单检查，出现任何其他字符直接拒绝；
// 任何解析失败（括号不配对、表达式为空、除零）都报
// INTERPOLATION_UNRESOLVED，绝不猜测结果。
func resolveMath(expr string, _ *Context) (string, error) {
	for _, ch := range expr {
		switch {
		case ch >= '0' && ch <= '9':
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
		case ch == '(' || ch == ')':
		case ch == ' ' || ch == '\t':
		default:
			return "", unresolvedErr(expr, "illegal character in math expression")
		}
	}

	p := &mathParser{input: expr}
	result, err := p.parseExpr()
	if err != nil {
		return "", unresolvedErr(expr, err.Error())
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return "", unresolvedErr(expr, "unexpected trailing input")
	}
	return strconv.FormatInt(result, 10), nil
}

// mathParser 递归下降解析器
type mathParser struct {
	input string
	pos   int
}

type mathError string

func (e mathError) Error() string { return string(e) }

func (p *mathParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *mathParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// parseExpr := term (('+'|'-') term)*
func (p *mathParser) parseExpr() (int64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseTerm := factor (('*'|'/') factor)*
func (p *mathParser) parseTerm() (int64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, mathError("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

// parseFactor := integer | '(' expr ')' | '-' factor
func (p *mathParser) parseFactor() (int64, error) {
	switch ch := p.peek(); {
	case ch == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, mathError("unbalanced parentheses")
		}
		p.pos++
		return inner, nil
	case ch == '-':
		p.pos++
		inner, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -inner, nil
	case ch >= '0' && ch <= '9':
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.ParseInt(p.input[start:p.pos], 10, 64)
		if err != nil {
			return 0, mathError("integer out of range")
		}
		return n, nil
	case ch == 0:
		return 0, mathError("unexpected end of expression")
	default:
		return 0, mathError("unexpected character " + strings.TrimSpace(string(ch)))
	}
}

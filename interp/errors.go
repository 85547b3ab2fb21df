package interp

import (
	"strings"

	"github.com/ceyewan/cascade/xerrors"
)

// 插值错误码
const (
	// CodeUnresolved 变量无法解析
	CodeUnresolved = "INTERPOLATION_UNRESOLVED"
	// CodeCycle config 自引用形成循环
	CodeCycle = "INTERPOLATION_CYCLE"
)

// IsUnresolved 检查错误是否为变量无法解析
func IsUnresolved(err error) bool {
	return xerrors.Is(err, xerrors.ErrUnresolved)
}

// IsCycle 检查错误是否为循环引用
func IsCycle(err error) bool {
	return xerrors.Is(err, xerrors.ErrCycle)
}

// unresolvedErr 构造带错误码的未解析错误
func unresolvedErr(name, msg string) error {
	return xerrors.WithCode(
		xerrors.Wrapf(xerrors.ErrUnresolved, "%q: %s", name, msg), CodeUnresolved)
}

// cycleErr 构造带完整引用链的循环错误
func cycleErr(chain []string) error {
	return xerrors.WithCode(
		xerrors.Wrapf(xerrors.ErrCycle, "reference chain: %s", strings.Join(chain, " -> ")), CodeCycle)
}

package engine

import (
	"fmt"

	"github.com/ceyewan/cascade/validate"
)

// 引擎错误码
const (
	// CodeSourceLoad 配置源加载失败
	CodeSourceLoad = "SOURCE_LOAD_ERROR"
	// CodeNetworkTimeout 配置源加载超时
	CodeNetworkTimeout = "NETWORK_TIMEOUT"
)

// ResolutionError 校验阶段失败时的聚合错误，
// 携带本次校验产出的全部 error 级诊断。
type ResolutionError struct {
	Diagnostics []validate.Diagnostic
}

func (e *ResolutionError) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "resolution failed"
	case 1:
		return fmt.Sprintf("resolution failed: %s", e.Diagnostics[0])
	default:
		return fmt.Sprintf("resolution failed: %s (and %d more diagnostics)",
			e.Diagnostics[0], len(e.Diagnostics)-1)
	}
}

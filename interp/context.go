package interp

import (
	"context"

	"github.com/ceyewan/cascade/value"
)

// Context 携带一次插值所需的环境信息，传给每个解析器。
//
// Doc 是插值进行中的文档（由引擎维护）；Env 为 nil 时
// 引擎会在首次解析前填入进程环境变量快照。
type Context struct {
	Ctx     context.Context   // 取消/截止时间，供阻塞型自定义解析器使用
	Doc     value.Value       // 插值中的文档（引擎维护，只读）
	Env     map[string]string // 环境变量表
	WorkDir string            // file 解析器的相对路径基准
	Values  map[string]any    // 调用方附加的上下文值

	// configLookup 由遍历器绑定，带循环检测的 config 自引用入口
	configLookup func(pathExpr string) (string, error)
}

// snapshot 返回浅拷贝，保证引擎内部的字段绑定不泄漏给调用方
func (c *Context) snapshot() *Context {
	cp := *c
	return &cp
}

// ConfigValue 按点分路径读取插值中文档的字符串值。
//
// 供自定义解析器使用，与内置 config 解析器走同一条
// 带循环检测的路径。引擎外直接调用时返回未解析错误。
func (c *Context) ConfigValue(path string) (string, error) {
	if c.configLookup == nil {
		return "", unresolvedErr(path, "config lookup unavailable outside interpolation")
	}
	return c.configLookup(path)
}

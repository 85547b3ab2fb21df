// Package clog 提供基于 slog 的结构化日志组件。
//
// cascade 是一个配置解析库，日志默认静默（Discard），
// 由调用方通过各组件的 WithLogger 选项注入真实实例。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，便于区分组件来源
//   - 零外部依赖（仅依赖 Go 标准库）
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("configuration resolved", clog.Int("sources", 3))
//
// 创建子 Logger：
//
//	engineLogger := logger.WithNamespace("engine")
//	engineLogger.Warn("source skipped", clog.String("source", "remote"))
package clog

// Logger 日志接口，提供结构化日志记录功能。
//
// 支持四个日志级别：Debug、Info、Warn、Error。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With 返回携带固定字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 返回追加命名空间的子 Logger，命名空间以 "." 连接
	WithNamespace(parts ...string) Logger
}

package clog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别类型，数值与 slog 对齐
type Level = slog.Level

const (
	DebugLevel = slog.LevelDebug // 调试级别
	InfoLevel  = slog.LevelInfo  // 信息级别
	WarnLevel  = slog.LevelWarn  // 警告级别
	ErrorLevel = slog.LevelError // 错误级别
)

// ParseLevel 将字符串解析为 Level（不区分大小写）
//
// 无法解析时返回 InfoLevel 和错误信息。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}

// Package testkit 提供测试辅助工具。
//
// 集成测试默认连接本机服务（如 localhost:2379 的 etcd），
// 服务不可达时测试会被跳过而不是失败。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/cascade/clog"
)

// NewLogger 返回一个用于测试的 logger，输出到 stdout 便于本地调试
func NewLogger() clog.Logger {
	logger, err := clog.New(&clog.Config{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewContext 返回一个带超时的测试上下文
func NewContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// NewID 返回一个唯一的测试 ID (UUID v4 前 8 位)。
// 用于生成唯一的键前缀，避免测试间数据冲突。
func NewID() string {
	return uuid.New().String()[0:8]
}

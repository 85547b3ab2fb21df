package clog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	handler   slog.Handler
	namespace []string
	baseAttrs []slog.Attr
}

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认配置（info 级别，console 格式，stdout 输出）。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	options := applyOptions(opts...)

	var out io.Writer
	if options.writer != nil {
		out = options.writer
	} else {
		switch config.Output {
		case "stdout":
			out = os.Stdout
		case "stderr":
			out = os.Stderr
		default:
			f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, err
			}
			out = f
		}
	}

	level, _ := ParseLevel(config.Level)
	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: config.AddSource}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return &loggerImpl{
		handler:   handler,
		namespace: options.namespaceParts,
	}, nil
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

func (l *loggerImpl) With(fields ...Field) Logger {
	return &loggerImpl{
		handler:   l.handler,
		namespace: l.namespace,
		baseAttrs: append(append([]slog.Attr{}, l.baseAttrs...), fields...),
	}
}

func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	return &loggerImpl{
		handler:   l.handler,
		namespace: append(append([]string{}, l.namespace...), parts...),
		baseAttrs: l.baseAttrs,
	}
}

func (l *loggerImpl) log(level Level, msg string, fields ...Field) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(l.baseAttrs)+len(fields)+1)
	attrs = append(attrs, l.baseAttrs...)
	attrs = append(attrs, fields...)
	if len(l.namespace) > 0 {
		attrs = append(attrs, slog.String("namespace", strings.Join(l.namespace, ".")))
	}

	logger := slog.New(l.handler)
	logger.LogAttrs(ctx, level, msg, attrs...)
}

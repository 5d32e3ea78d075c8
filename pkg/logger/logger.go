// Package logger 基于log/slog的结构化日志
//
// 使用示例：
//
//	log, err := logger.New(logger.Options{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(log)
//
//	log.InfoContext(ctx, "图书已创建", slog.Uint64("book_id", 1))
//
// 请求日志会带上request_id与trace_id，便于从日志跳到Jaeger查看链路。
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// Options 日志配置
type Options struct {
	Level  string // debug/info/warn/error
	Format string // json/text
	Output string // stdout/stderr/文件路径
}

// New 根据配置创建Logger
// 返回的Logger会自动从ctx附加trace_id/span_id
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	w, err := openOutput(opts.Output)
	if err != nil {
		return nil, err
	}

	return NewWithWriter(w, opts.Format, level), nil
}

// NewWithWriter 使用指定Writer创建Logger（测试时写入bytes.Buffer）
func NewWithWriter(w io.Writer, format string, level slog.Level) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, handlerOpts)
	} else {
		h = slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.New(&traceHandler{Handler: h})
}

// ParseLevel 解析日志级别，空字符串视为info
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("未知的日志级别: %q", s)
	}
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		return f, nil
	}
}

// traceHandler 从ctx中提取链路ID写入日志
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := tracing.ExtractTraceID(ctx); traceID != "" {
		r.AddAttrs(
			slog.String("trace_id", traceID),
			slog.String("span_id", tracing.ExtractSpanID(ctx)),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// Discard 丢弃所有输出的Logger（测试用）
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

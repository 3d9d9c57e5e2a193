package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是全局的结构化日志实例，由 Init 初始化。
var Logger zerolog.Logger

func init() {
	// 未调用 Init 时也保证可用（例如单元测试）
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init 初始化全局日志器。
// 默认输出 JSON 到 stdout；LOG_LEVEL 和 LOG_PRETTY 可通过环境变量调整。
func Init(service string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}

	var out io.Writer = os.Stdout
	if os.Getenv("LOG_PRETTY") == "true" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	Logger = zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Ctx 返回携带链路追踪信息的日志器。
// 如果上下文中存在有效的 Span，会附带 trace_id / span_id 字段，
// 方便在日志系统中与 Jaeger 的调用链相互关联。
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &l
}

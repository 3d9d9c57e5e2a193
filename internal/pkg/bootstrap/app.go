package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"yuxian/internal/pkg/logger"
	"yuxian/internal/pkg/tracing"
)

// AppCtx 传递给路由注册回调的上下文。
type AppCtx struct {
	Mux *http.ServeMux
}

// AppInfo 描述如何启动一个服务进程。
type AppInfo struct {
	ServiceName      string
	Port             int
	JaegerEndpoint   string
	RegisterHandlers func(appCtx AppCtx)
	// Runners 是随服务一起运行的后台任务（例如 WebSocket Hub、订阅循环），
	// 任务应在 ctx 取消后尽快返回。
	Runners []func(ctx context.Context) error
	// OnShutdown 在 HTTP 服务器关停后执行资源清理，按注册顺序调用。
	OnShutdown []func(ctx context.Context) error
}

// StartService 封装服务的通用启动和优雅关停逻辑：
// 初始化追踪、挂载路由、运行后台任务，收到退出信号后依次回收资源。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	tp, err := tracing.InitTracerProvider(info.ServiceName, info.JaegerEndpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Logger.Info().Msgf("%s listening on %s", info.ServiceName, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	for _, runner := range info.Runners {
		runner := runner
		g.Go(func() error { return runner(gctx) })
	}

	// 阻塞等待退出信号，或任一后台任务异常退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Logger.Info().Msgf("received signal %s, shutting down %s", sig, info.ServiceName)
	case <-gctx.Done():
		logger.Logger.Error().Msg("background task exited unexpectedly, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down http server")
	}

	cancel()
	if err := g.Wait(); err != nil {
		logger.Logger.Error().Err(err).Msg("background task failed")
	}

	for _, fn := range info.OnShutdown {
		if err := fn(shutdownCtx); err != nil {
			logger.Logger.Error().Err(err).Msg("shutdown hook failed")
		}
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down tracer provider")
	}

	logger.Logger.Info().Msgf("service %s gracefully shut down", info.ServiceName)
}

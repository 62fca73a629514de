package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/flowviz/internal/adapter/grpc"
	"github.com/simaogato/flowviz/internal/adapter/source"
	"github.com/simaogato/flowviz/internal/adapter/web"
	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/infrastructure/config"
	"github.com/simaogato/flowviz/internal/infrastructure/logger"
	"github.com/simaogato/flowviz/internal/infrastructure/reporting"
	"github.com/simaogato/flowviz/internal/usecase/animator"
	"github.com/simaogato/flowviz/internal/usecase/simulation"
	"github.com/simaogato/flowviz/internal/usecase/table"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger = zapLogger.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	reporter, err := reporting.New(reporting.Options{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize fault reporting", zap.Error(err))
	}
	defer reporter.Flush()

	// 2. Document and icon sources
	client := source.NewClient(source.Options{
		Timeout:  cfg.Data.Timeout,
		RetryMax: cfg.Data.RetryMax,
		Logger:   zapLogger.Named("fetch"),
	})
	documents := source.NewDocumentSource(cfg.Data.URL, client)
	icons := source.NewIconLoader(client, documents)

	// 3. Diagram pipeline
	sim := simulation.New(
		documents,
		icons,
		domain.Stage{Width: cfg.Stage.Width, Height: cfg.Stage.Height},
		animator.Config{Duration: cfg.Animation.Duration, FrameInterval: cfg.Animation.FrameInterval},
		zapLogger,
	)
	sim.ReadinessTimeout = cfg.Readiness.Timeout
	sim.Animator.OnPanic = reporter.Recover
	tableService := table.NewTableService(documents, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := sim.Run(ctx); err != nil {
			// the servers keep serving an empty stage
			reporter.CaptureError("simulation", err)
		}
	}()

	// 4. HTTP server
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           web.NewRouter(web.NewHandler(sim, tableService, zapLogger), zapLogger, reporter.Recover),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
	}
	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", httpServer.Addr), zap.String("data", cfg.Data.URL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// 5. gRPC server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(zapLogger.Named("grpc")),
			grpcadapter.AuthInterceptor(cfg.GRPC.APIToken),
		),
		grpclib.StreamInterceptor(grpcadapter.StreamAuthInterceptor(cfg.GRPC.APIToken)),
	)
	grpcadapter.RegisterFlowServiceServer(grpcServer, grpcadapter.NewServer(sim, tableService, zapLogger))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		zapLogger.Fatal("Failed to listen", zap.String("addr", cfg.GRPCAddr()), zap.Error(err))
	}
	go func() {
		zapLogger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(lis); err != nil {
			zapLogger.Fatal("Failed to serve gRPC", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(zapLogger, cfg.HTTP.ShutdownTimeout, cancel, sim, httpServer, grpcServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the
// animation jobs and both servers
func waitForShutdown(
	zapLogger *zap.Logger,
	timeout time.Duration,
	cancel context.CancelFunc,
	sim *simulation.SimulationService,
	httpServer *http.Server,
	grpcServer *grpclib.Server,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	zapLogger.Info("Shutting down gracefully", zap.String("signal", sig.String()))

	shutdownCtx, done := context.WithTimeout(context.Background(), timeout)
	defer done()

	if err := sim.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("Animations did not stop in time", zap.Error(err))
	}
	cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("HTTP server shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	zapLogger.Info("Servers stopped")
}

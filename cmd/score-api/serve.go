package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-score-api/api/swagger"
	"github.com/noah-isme/sma-score-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-score-api/internal/middleware"
	"github.com/noah-isme/sma-score-api/internal/service"
	"github.com/noah-isme/sma-score-api/pkg/config"
	"github.com/noah-isme/sma-score-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-score-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-score-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "listen port (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		a.cfg.Port = port
	}
	if err := a.wire(); err != nil {
		a.logger.Error("startup failed", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Sugar().Infow("server starting", "addr", srv.Addr, "env", a.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(a *app) *gin.Engine {
	if a.cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS))
	r.Use(internalmiddleware.Metrics(a.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(a.metrics, a.logger).
		AddCheck("postgres", a.db.PingContext)
	if a.cacheRepo != nil {
		ops.AddCheck("redis", a.cacheRepo.Ping)
	}
	handler.RegisterOpsRoutes(r, ops)

	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := service.NewAuthService(a.cfg.JWT.Secret, a.cfg.JWT.Issuer)
	secured := r.Group(a.cfg.APIPrefix, internalmiddleware.JWT(auth))
	handler.RegisterScoreRoutes(secured, handler.NewScoreHandler(a.scores))

	return r
}

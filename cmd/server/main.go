package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"QAChecklist/internal/config"
	"QAChecklist/internal/handlers"
	"QAChecklist/internal/logger"
	"QAChecklist/internal/middleware"
	"QAChecklist/internal/repo"
	"QAChecklist/internal/service"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.NewConfig()

	// создаём регистратор zap под окружение
	zl, err := logger.New(cfg.LogEnv, cfg.LogLevel, "stdout")
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := zl.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = zl.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	submissions := service.NewSubmissionService(repo.NewSubmissionRepository(gormDB), sugar.Named("submissions"))
	if n, err := submissions.Stored(ctx); err != nil {
		sugar.Warnw("failed to count stored submissions", "error", err)
	} else {
		sugar.Infow("submissions storage ready", "stored", n)
	}
	sheets := service.NewSheetService(repo.NewSheetRowRepository(gormDB), cfg.SpreadsheetID, cfg.SheetName, sugar.Named("sheets"))
	if !sheets.Configured() {
		sugar.Warnw("summary sheet is not configured, /api/submit-to-sheets will answer 503")
	}

	h := handlers.NewHandler(submissions, sheets, sugar)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sugar.Infow("Starting server",
		"addr", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"SheetName", cfg.SheetName,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sugar.Infow("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("Server failed", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

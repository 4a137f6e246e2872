package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"poissonnerie/backend/internal/backup"
	"poissonnerie/backend/internal/cache"
	"poissonnerie/backend/internal/config"
	"poissonnerie/backend/internal/httpapi"
	"poissonnerie/backend/internal/service"
	"poissonnerie/backend/internal/settings"
	"poissonnerie/backend/internal/store"
	"poissonnerie/backend/internal/store/memory"
	sqlitestore "poissonnerie/backend/internal/store/sqlite"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settingsMgr, err := settings.NewManager(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("settings unavailable: %v", err)
	}

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DemoMode {
		repo = memory.NewSeeded()
		log.Info("repository: in-memory (demo mode)")
	} else {
		if settingsMgr.Get().AutoBackup {
			if path, err := backup.Run(cfg.DatabasePath, settingsMgr.Get().BackupFolder); err != nil {
				log.Warnf("database backup failed: %v", err)
			} else if path != "" {
				log.WithField("path", path).Info("database backed up")
			}
		}

		sq, err := sqlitestore.Open(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("sqlite unavailable: %v", err)
		}
		repo = sq
		closers = append(closers, sq.Close)
		log.WithField("path", cfg.DatabasePath).Info("repository: sqlite")
	}

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warnf("redis unavailable (%v), using noop cache", err)
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Info("report cache: redis")
		}
	} else {
		log.Info("report cache: noop")
	}

	svc := service.New(repo, reportCache, settingsMgr, log,
		cfg.TaxRatePercent, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	if err := auth.EnsureDefaultAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("admin bootstrap failed: %v", err)
	}
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infof("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warnf("close error: %v", err)
		}
	}

	log.Info("server stopped")
}

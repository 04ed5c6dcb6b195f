package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"minestats/pkg/cache"
	"minestats/pkg/card"
	"minestats/pkg/config"
	"minestats/pkg/github"
	"minestats/pkg/history"
	"minestats/pkg/logger"
	"minestats/pkg/server"
	"minestats/pkg/version"
	"minestats/pkg/warmer"
)

var (
	configPath  = flag.String("config", "", "配置文件路径 (例如 /etc/minestats/minestats.yaml)")
	logLevel    = flag.String("log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置文件")
	logFormat   = flag.String("log-format", "", "日志格式 (json or text)，覆盖配置文件")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Name, version.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.InitFromEnv()
		logger.GetLogger().WithError(err).Fatal("Failed to load configuration")
	}

	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	logger.Init(cfg.Log)
	log := logger.WithComponent("main")

	client := github.NewClient(cfg.GitHub)
	recorder := history.New(cfg.History)
	defer recorder.Close()

	svc := server.NewService(cache.New(cache.NewMemoryStore()), client, cfg.Cache.TimeoutFor, recorder)
	srv := server.New(svc, server.Options{
		Mode:       cfg.Server.Mode,
		AllowUsers: cfg.AllowUsers,
		Themes:     card.NewThemes(cfg.Themes, cfg.DefaultTheme),
	})

	network, address := cfg.Listen()
	if err := srv.Start(network, address); err != nil {
		log.WithError(err).Fatal("Failed to start HTTP server")
	}

	var w *warmer.Warmer
	if cfg.Warmer.Schedule != "" {
		users := cfg.WarmUsers()
		if len(users) == 0 {
			log.Warn("warmer schedule set but no users to warm, skipping")
		} else if w, err = warmer.New(cfg.Warmer, users, svc.Warm); err != nil {
			log.WithError(err).Fatal("Failed to create cache warmer")
		} else {
			w.Start()
		}
	}

	log.WithFields(logrus.Fields{
		"version":      version.Version,
		"allow_users":  len(cfg.AllowUsers),
		"history":      cfg.History.Enabled,
		"listen_stack": cfg.Server.ListenStack,
	}).Info("minestats started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down minestats...")
	if w != nil {
		w.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

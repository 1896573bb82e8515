package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"diabetesapi/config"
	"diabetesapi/diabetes"
	qhttp "diabetesapi/http"
	"diabetesapi/logging"
	"diabetesapi/ml"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load model; a missing or corrupt artifact is a deployment error
	model, err := ml.LoadModel(cfg.Model.Type, cfg.Model.Path)
	if err != nil {
		logger.Fatal("failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	logger.Info("model loaded",
		zap.String("type", model.Type),
		zap.String("version", model.Version),
		zap.Strings("features", model.Schema.Names),
	)

	// 3. Start HTTP server
	server, err := qhttp.NewServer(qhttp.ServerConfigFrom(cfg.Http), diabetes.NewService(model), logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	"github.com/sorooshm/sx-ui/config"
	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/web"
	"github.com/sorooshm/sx-ui/xray"
)

func main() {
	if err := run(); err != nil {
		logger.Error("sx-ui:", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env next to the binary; absence is fine.
	_ = godotenv.Load()

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		logger.InitLogger(logging.INFO)
	}

	if err := database.InitDB(config.GetDBPath()); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.CloseDB()

	api, err := xray.NewAPI(config.GetXrayAPIPort())
	if err != nil {
		return fmt.Errorf("init xray stats api: %w", err)
	}
	defer api.Close()

	proc := xray.NewProcessManager(config.GetXrayConfigPath())
	server := web.NewServer(proc, api)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
		if err := server.Stop(); err != nil {
			logger.Warning("shutdown:", err)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"marketintel/internal/config"
	"marketintel/internal/util"
	"marketintel/pkg/marketintel"
)

func main() {
	cfgPath := "config/marketintel.yaml"
	if p := os.Getenv("MARKETINTEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns stdout, so logs go to a dated file.
	logName := fmt.Sprintf("marketintel-client-%s.log", time.Now().Format("2006-01-02"))
	logger, logFile, err := util.NewFileLogger(cfg.Logging.Level, cfg.Logging.Dir, logName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	util.SetDefault(logger)

	client := marketintel.NewClient(cfg.Service.BaseURL,
		marketintel.WithTimeout(cfg.Service.Timeout),
		marketintel.WithLogger(logger),
	)
	logger.Info("client starting", "base_url", client.BaseURL(), "timeout", cfg.Service.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(
		initialModel(ctx, client, client.BaseURL(), cfg.Search.MinQueryLen, cfg.Display.TopImpacts, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

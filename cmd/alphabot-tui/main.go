// Package main runs the Alpha Bot terminal chat client.
//
// Usage:
//
//	alphabot-tui [TICKER]
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/app"
	"github.com/alphabot/alphabot-client/internal/config"
	"github.com/alphabot/alphabot-client/internal/tui"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

const defaultLogFile = "alphabot-tui.log"

func main() {
	cfg := config.Load()

	// The terminal belongs to the UI, so logs always go to a file.
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = defaultLogFile
	}
	log, err := logger.New(cfg.LogLevel, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	m := tui.New(ctx, a.Session, a.Rooms, a.Accounts)
	if len(os.Args) > 1 {
		m = m.WithTicker(os.Args[1])
	}

	log.Info("starting terminal client")
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
		log.Error("terminal client failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/zoowalk/internal/config"
	"github.com/zeusync/zoowalk/internal/injector"
	"github.com/zeusync/zoowalk/internal/terminal"
)

func main() {
	configPath := flag.String("config", "configs/zoowalk.yaml", "path to the YAML configuration")
	logFile := flag.String("log", "zoowalk-tui.log", "log file; the terminal is busy drawing")
	flag.Parse()

	if err := run(*configPath, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, "zoowalk:", err)
		os.Exit(1)
	}
}

func run(configPath, logFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Log.Outputs = []string{logFile}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}

	rt, cleanup, err := injector.InitializeTerminal(cfg, screen)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && !errors.Is(err, terminal.ErrQuit) {
		return err
	}
	return nil
}

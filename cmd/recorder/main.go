package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alex4udak-blip/HR-bot--sub007/config"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/app"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/cli"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := &cli.Dependencies{
		Config: cfg,
		NewApp: app.New,
	}
	defer deps.Sync()

	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/parkhub/parkhub-tui/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional, defaults to ~/.config/parkhub/config.toml)")
	pollSeconds := flag.Int("poll", -1, "refresh interval in seconds for active lists (0 disables background refresh)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PollEvery:  *pollSeconds,
		LogLevel:   *logLevel,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "parkhub: %v\n", err)
		return 1
	}
	return 0
}

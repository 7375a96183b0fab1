package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/guardcore/guarddash/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override guarddash config path (optional)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (optional, defaults to the saved interval or 30s)")
	statePath := flag.String("state", "", "override the file holding credentials and preferences (optional)")
	backupDir := flag.String("backup-dir", "", "directory for exported backups (optional, defaults to the working directory)")
	debug := flag.Bool("debug", false, "write debug logs to stderr")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		StatePath:  *statePath,
		BackupDir:  *backupDir,
		Debug:      *debug,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "guarddash: %v\n", err)
		return 1
	}
	return 0
}

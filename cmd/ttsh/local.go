package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tecnoter/ttsh/internal/config"
	"github.com/tecnoter/ttsh/internal/console"
	"github.com/tecnoter/ttsh/internal/feed"
	"github.com/tecnoter/ttsh/internal/node"
	"github.com/tecnoter/ttsh/internal/scheduler"
)

var (
	localFeed     string
	localFortunes string
	localLog      string
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Run a console session on this terminal",
	RunE:  runLocal,
}

func init() {
	localCmd.Flags().StringVar(&localFeed, "feed", "", "Content feed file (JSON or YAML)")
	localCmd.Flags().StringVar(&localFortunes, "fortunes", "", "Fortune file, one per line")
	localCmd.Flags().StringVar(&localLog, "log", "", "Write logs to this file instead of discarding them")
}

func runLocal(cmd *cobra.Command, args []string) error {
	// The console owns the screen, so logs go to a file or nowhere.
	log.SetOutput(io.Discard)
	if localLog != "" {
		f, err := os.OpenFile(localLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
	}

	var fortunes []string
	if localFortunes != "" {
		loaded, err := config.LoadFortunes(localFortunes)
		if err != nil {
			return err
		}
		fortunes = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := feed.NewStore(localFeed, "local", fortunes)
	if localFeed != "" {
		if err := store.Reload(); err != nil {
			return err
		}
		if fw, err := feed.NewWatcher(store, 0); err != nil {
			log.Printf("WARN: Feed hot reload disabled: %v", err)
		} else {
			defer fw.Stop()
		}
	}
	store.SetLive(scheduler.Measure(time.Now(), time.Now(), scheduler.DefaultLoadAvgPath))

	return console.Run(ctx, console.Config{
		Store:      store,
		FrameDelay: node.DefaultFrameDelay,
	})
}

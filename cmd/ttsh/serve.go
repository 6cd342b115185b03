package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/spf13/cobra"

	"github.com/tecnoter/ttsh/internal/config"
	"github.com/tecnoter/ttsh/internal/feed"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/node"
	"github.com/tecnoter/ttsh/internal/scheduler"
	"github.com/tecnoter/ttsh/internal/session"
	"github.com/tecnoter/ttsh/internal/sshserver"
	"github.com/tecnoter/ttsh/internal/telnetserver"
	"github.com/tecnoter/ttsh/internal/terminalio"
	"github.com/tecnoter/ttsh/internal/webapi"
)

const shutdownTimeout = 5 * time.Second

var serveConfigDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the node over SSH, telnet and HTTP",
	Long: `Start the node. Listeners, limits and the feed location come from
config.json in the config directory; anything it leaves out uses defaults.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigDir, "config", "configs", "Directory holding config.json")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)
	log.Printf("INFO: Starting ttsh %s", Version)

	cfg, err := config.LoadServerConfig(serveConfigDir)
	if err != nil {
		return err
	}
	if cfg.Debug {
		logging.DebugEnabled = true
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			log.Printf("WARN: Failed to create log directory for %s: %v", cfg.LogFile, err)
		}
		logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("WARN: Failed to open log file %s: %v. Logging to stderr.", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, logFile))
			log.Printf("INFO: Logging to file: %s", cfg.LogFile)
			defer logFile.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if fw, err := feed.NewWatcher(store, 0); err != nil {
		log.Printf("WARN: Feed hot reload disabled: %v", err)
	} else {
		defer fw.Stop()
	}
	if cw, err := newConfigWatcher(serveConfigDir); err != nil {
		log.Printf("WARN: Config change detection disabled: %v", err)
	} else {
		defer cw.Stop()
	}

	var wg sync.WaitGroup
	sched, err := newScheduler(cfg, store)
	if err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnHangup(ctx, hup, sched)

	registry := session.NewSessionRegistry(cfg.MaxNodes, cfg.MaxConnectionsPerIP)
	n := node.New(node.Config{
		Store:      store,
		Registry:   registry,
		BoardName:  cfg.BoardName,
		FrameDelay: node.DefaultFrameDelay,
	})

	errCh := make(chan error, 3)
	var closers []func()

	if cfg.TelnetEnabled {
		mode := terminalio.ParseOutputMode(cfg.TelnetOutputMode)
		ts, err := telnetserver.NewServer(telnetserver.Config{
			Host: cfg.TelnetHost,
			Port: cfg.TelnetPort,
			SessionHandler: func(tc *telnetserver.TelnetConn) {
				if err := n.Serve(ctx, node.FromTelnet(tc, mode)); err != nil {
					logging.Debug("telnet session from %s ended: %v", tc.RemoteAddr(), err)
				}
			},
		})
		if err != nil {
			return fmt.Errorf("failed to configure telnet: %w", err)
		}
		log.Printf("INFO: Telnet output mode: %s", mode)
		go func() { errCh <- ts.ListenAndServe() }()
		closers = append(closers, func() {
			ts.Close()
			ts.Wait()
		})
	}

	if cfg.SSHEnabled {
		ss, err := sshserver.NewServer(sshserver.Config{
			HostKeyPath:         cfg.SSHHostKeyPath,
			Host:                cfg.SSHHost,
			Port:                cfg.SSHPort,
			LegacySSHAlgorithms: cfg.LegacySSHAlgorithms,
			Version:             cfg.Version,
			SessionHandler: func(s ssh.Session) {
				if err := n.Serve(s.Context(), node.FromSSH(s)); err != nil {
					logging.Debug("SSH session from %s ended: %v", s.RemoteAddr(), err)
				}
			},
		})
		if err != nil {
			return fmt.Errorf("failed to configure SSH: %w", err)
		}
		log.Printf("INFO: SSH server listening on %s", ss.Addr())
		go func() {
			if err := ss.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				errCh <- fmt.Errorf("failed to serve SSH: %w", err)
				return
			}
			errCh <- nil
		}()
		closers = append(closers, func() { ss.Close() })
	}

	if cfg.HTTPEnabled {
		ws, err := webapi.New(webapi.Config{Store: store, Registry: registry})
		if err != nil {
			return fmt.Errorf("failed to configure HTTP API: %w", err)
		}
		go func() { errCh <- ws.ListenAndServe(cfg.HTTPAddr) }()
		closers = append(closers, func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := ws.Shutdown(sctx); err != nil {
				log.Printf("WARN: HTTP API shutdown: %v", err)
			}
		})
	}

	if len(closers) == 0 {
		stop()
		wg.Wait()
		return errors.New("no listeners enabled in config.json")
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Printf("INFO: Shutdown requested")
	case runErr = <-errCh:
		if runErr != nil {
			log.Printf("ERROR: %v", runErr)
		}
	}

	stop()
	for _, c := range closers {
		c()
	}
	wg.Wait()
	log.Printf("INFO: ttsh shutting down.")
	return runErr
}

// openStore loads fortunes and the content feed. A feed that fails to load
// leaves the built-in content in place.
func openStore(cfg config.ServerConfig) (*feed.Store, error) {
	fortunes, err := config.LoadFortunes(cfg.FortunesPath)
	if err != nil {
		return nil, err
	}
	store := feed.NewStore(cfg.FeedPath, cfg.NodeName, fortunes)
	if err := store.Reload(); err != nil {
		log.Printf("WARN: Feed not loaded from %s: %v", cfg.FeedPath, err)
	}
	return store, nil
}

// reloadOnHangup runs the feed reload job each time a signal arrives on hup.
func reloadOnHangup(ctx context.Context, hup <-chan os.Signal, sched *scheduler.Scheduler) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			log.Printf("INFO: SIGHUP received, reloading feed")
			if !sched.RunNow(scheduler.JobFeedReload) {
				log.Printf("WARN: Feed reload not run: no reload schedule configured or a reload is in progress")
			}
		}
	}
}

func newScheduler(cfg config.ServerConfig, store *feed.Store) (*scheduler.Scheduler, error) {
	jobs := []scheduler.Job{
		scheduler.SystemInfoJob(store, cfg.RefreshSchedule, time.Now(), nil, scheduler.DefaultLoadAvgPath),
	}
	if cfg.FeedReloadSchedule != "" {
		jobs = append(jobs, scheduler.FeedReloadJob(store, cfg.FeedReloadSchedule))
	}
	if err := scheduler.Validate(jobs); err != nil {
		return nil, fmt.Errorf("failed to configure scheduler: %w", err)
	}
	return scheduler.NewScheduler(jobs, 0, cfg.HistoryPath), nil
}

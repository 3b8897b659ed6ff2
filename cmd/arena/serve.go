package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/logging"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/platform/tui"
	"github.com/vovakirdan/pong-arena/internal/storage"
	"github.com/vovakirdan/pong-arena/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

var (
	flagHTTPAddr    string
	flagSSHAddr     string
	flagHostKey     string
	flagNoSSH       bool
	flagLogLevel    string
	flagLogJSON     bool
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the arena servers",
	Long: `Start the arena. One process serves:

  /ws                  WebSocket endpoint speaking the JSON protocol
  /healthz             health check
  /api/...             rooms, match history and player stats
  ssh                  the terminal client for every SSH session

Settings come from the environment (ARENA_HTTP_ADDR, ARENA_SSH_ADDR,
ARENA_HOST_KEY, ARENA_DB_PATH, ARENA_CONFIG, ARENA_LOG_LEVEL,
ARENA_LOG_JSON, ARENA_DISABLE_SSH, ARENA_SEND_BUFFER,
ARENA_ALLOWED_ORIGINS); flags override them.

Examples:
  arena serve
  arena serve --http :9000 --ssh :2222
  arena serve --no-ssh --log-json`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP/WebSocket address (host:port)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key (generated if missing)")
	serveCmd.Flags().BoolVar(&flagNoSSH, "no-ssh", false, "Do not start the SSH server")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().BoolVar(&flagLogJSON, "log-json", false, "Log as JSON")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "SSH idle timeout in minutes")
}

// serverSettings merges environment settings with the flags that were set.
func serverSettings(cmd *cobra.Command) (config.ServerConfig, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("http") {
		cfg.HTTPAddr = flagHTTPAddr
	}
	if flags.Changed("ssh") {
		cfg.SSHAddr = flagSSHAddr
	}
	if flags.Changed("host-key") {
		cfg.HostKey = flagHostKey
	}
	if flags.Changed("no-ssh") {
		cfg.DisableSSH = flagNoSSH
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = flagLogJSON
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = flagDBPath
	}
	if cmd.Flags().Changed("config") {
		cfg.ConfigPath = flagConfig
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := serverSettings(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Options{
		Level:  settings.LogLevel,
		JSON:   settings.LogJSON,
		Prefix: "arena",
	})

	rules, err := config.Load(settings.ConfigPath)
	if err != nil {
		return err
	}
	mcfg := rules.Manager()

	// History is optional: the arena keeps running without a database.
	// The store is opened first so it is closed after the manager has
	// drained its pending saves.
	var (
		history    ws.History
		tuiHistory tui.HistorySource
	)
	store, err := storage.Open(settings.DBPath)
	if err != nil {
		logger.Warn("match history disabled", "path", settings.DBPath, "err", err)
	} else {
		defer store.Close()
		history, tuiHistory = store, store
	}

	manager := multiplayer.NewManager(mcfg, nil, logger)
	defer manager.Close()
	if store != nil {
		manager.SetResultSaver(store)
		manager.SetTournamentSaver(store)
	}

	gwOpts := []ws.Option{ws.WithSendBuffer(settings.SendBuffer)}
	if len(settings.AllowedOrigins) > 0 {
		gwOpts = append(gwOpts, ws.WithCheckOrigin(ws.AllowOrigins(settings.AllowedOrigins)))
	}
	router := ws.NewRouter(ws.RouterDeps{
		Manager: manager,
		Gateway: ws.NewGateway(manager, logger, gwOpts...),
		History: history,
		Logger:  logger,
	})
	httpSrv := &http.Server{
		Addr:              settings.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var sshSrv *tui.SSHServer
	if !settings.DisableSSH {
		sshSrv, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:     settings.SSHAddr,
			HostKeyPath: settings.HostKey,
			IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
			SendBuffer:  settings.SendBuffer,
		}, manager, tuiHistory, difficultyNames(mcfg), logger)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", "addr", settings.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if sshSrv != nil {
		go func() {
			if err := sshSrv.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("ssh server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("server failed", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdown(shutdownCtx, logger, httpSrv, sshSrv)
	return runErr
}

func shutdown(ctx context.Context, logger *log.Logger, httpSrv *http.Server, sshSrv *tui.SSHServer) {
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	if sshSrv != nil {
		if err := sshSrv.Shutdown(ctx); err != nil {
			logger.Warn("ssh shutdown", "err", err)
		}
	}
}

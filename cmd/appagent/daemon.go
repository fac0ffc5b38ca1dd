package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"appagent/internal/config"
	"appagent/internal/daemon"
	"appagent/internal/logging"
)

const childEnv = "APPAGENT_DAEMON_CHILD"

var logPath = filepath.Join(os.TempDir(), "appagent.log")

// startDaemon backs both start and serve. Unless --foreground is given the
// parent re-executes itself detached and returns.
func startDaemon(withWeb bool, args []string) {
	cfg := mustConfig()
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		fatalf("Daemon is already running (PID: %d)", pid)
	}

	foreground := hasFlag(args, "--foreground", "-f")
	if !foreground && os.Getenv(childEnv) != "1" {
		daemonize(cfg, withWeb)
		return
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development}
	if !foreground {
		logCfg.OutputPaths = []string{logPath}
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fatalf("Invalid log configuration: %v", err)
	}
	defer logger.Sync()

	if err := runDaemon(cfg, dm, logger, withWeb); err != nil {
		logger.Error("daemon exited", zap.Error(err))
		os.Exit(1)
	}
}

func runDaemon(cfg *config.Config, dm *daemon.Daemon, logger *zap.Logger, withWeb bool) error {
	a, err := newApp(cfg, logger, withWeb)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := dm.WritePID(); err != nil {
		return err
	}
	defer dm.RemovePID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting appagent daemon",
		zap.String("version", version),
		zap.Int("pid", os.Getpid()),
		zap.Bool("web", withWeb),
	)
	logger.Debug("configuration", zap.String("config", cfg.String()))

	err = a.Run(ctx)
	logger.Info("daemon stopped")
	return err
}

func daemonize(cfg *config.Config, withWeb bool) {
	env := append(os.Environ(), childEnv+"=1")

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil},
		Sys:   &syscall.SysProcAttr{Setsid: true},
	}

	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	process, err := os.StartProcess(exe, os.Args, procAttr)
	if err != nil {
		fatalf("Failed to start daemon process: %v", err)
	}

	success("Daemon started (PID: %d)", process.Pid)
	if withWeb {
		fmt.Printf("Web API:   http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
		fmt.Printf("Panels:    ws://%s:%d/ws/panels\n", cfg.Web.Host, cfg.Web.Port)
	}
	fmt.Printf("Logs:      %s\n", logPath)
}

func stopDaemon() {
	cfg := mustConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		fatalf("Failed to check daemon status: %v", err)
	}
	if !running {
		fmt.Println("Daemon is not running")
		return
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(10 * time.Second); err != nil {
		fatalf("Failed to stop daemon: %v", err)
	}
	success("Daemon stopped")
}

func hasFlag(args []string, names ...string) bool {
	for _, a := range args {
		for _, n := range names {
			if a == n {
				return true
			}
		}
	}
	return false
}

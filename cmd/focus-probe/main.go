// Command focus-probe prints focus changes as the agent daemon would see them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"appagent/internal/logging"
	"appagent/pkg/detector"
	"appagent/pkg/window"
)

func main() {
	backend := flag.String("backend", "auto", "display backend: auto, x11 or gnome")
	interval := flag.Duration("interval", 250*time.Millisecond, "poll interval")
	debug := flag.Bool("debug", false, "log probe errors")
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	logger := logging.NewOrNop(logging.Config{Level: level, Development: true})
	defer logger.Sync()

	monitor, probe, err := detector.New(logger, *backend, *interval)
	if err != nil {
		color.Red("No focus backend: %v", err)
		os.Exit(1)
	}
	defer probe.Close()
	monitor.OnError = func(err error) { logger.Debug("probe failed", zap.Error(err)) }

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := monitor.Start(ctx); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
	fmt.Print(probe.Status())
	color.Cyan("Watching focus on %s. Ctrl-C to stop.", monitor.GetDisplayServer())

	for info := range monitor.FocusChanges() {
		printFocus(info, monitor.IsLocked())
	}
}

func printFocus(info window.ActivityInfo, locked bool) {
	marker := color.YellowString("control")
	if info.IsNewWindow {
		marker = color.GreenString("window ")
	}
	fmt.Printf("%s %s %-16s win=%#x ctl=%#x pid=%d %q",
		info.Timestamp.Format("15:04:05.000"), marker, info.ProcessName,
		info.WindowHandle, info.FocusedElement, info.PID, info.Title)
	if locked {
		fmt.Print(color.RedString(" [locked]"))
	}
	fmt.Println()
}

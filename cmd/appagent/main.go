package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"appagent/internal/agent"
	"appagent/internal/command"
	"appagent/internal/config"
	"appagent/internal/daemon"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "start":
		startDaemon(false, args)
	case "serve":
		startDaemon(true, args)
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "agents":
		listAgents()
	case "commands":
		listCommands()
	case "run":
		runCommand(args)
	case "type":
		typeText(args)
	case "report":
		generateReport(args)
	case "clear":
		clearDatabase()
	case "version":
		fmt.Printf("appagent version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		color.Red("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`appagent - application agents for switch and scanning access

Usage:
  appagent <command> [options]

Commands:
  start [-f]             Start the agent daemon
  serve [-f]             Start the daemon with the web API and panel socket
  stop                   Stop the daemon
  status                 Show daemon status and the focused agent
  agents                 List application and functional agents
  commands               List known commands and whether they are enabled
  run <command> [arg]    Dispatch a command through the agent chain
  type <text>            Send text through the focused text control
  report [period] [--json]
                         Command and focus report (period: day, week, month)
  clear                  Delete recorded events
  version                Show version information
  help                   Show this help message

  -f, --foreground       Stay attached and log to stderr

Examples:
  appagent serve
  appagent run CmdPhraseSpeak
  appagent run CmdSwitchWindows firefox
  appagent type "btw "
  appagent report week

Environment Variables:
  APPAGENT_DB_PATH           Database file path
  APPAGENT_CONFIG_FILE       Agent configuration (TOML), reloaded on change
  APPAGENT_POLL_INTERVAL     Focus poll interval (e.g. 250ms)
  APPAGENT_DISPLAY_BACKEND   auto, x11 or gnome
  APPAGENT_HEADLESS          Record keystrokes instead of injecting them
  APPAGENT_WEB_HOST          Web API host
  APPAGENT_WEB_PORT          Web API port
  APPAGENT_PREDICTOR_CMD     Word prediction command
  APPAGENT_LOG_LEVEL         debug, info, warn or error
  APPAGENT_PID_FILE          PID file path

Version: %s
`, version)
}

func mustConfig() *config.Config {
	cfg, err := config.New()
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func fatalf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func success(format string, args ...any) {
	color.Green(format, args...)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func showStatus() {
	cfg := mustConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		fatalf("Failed to check daemon status: %v", err)
	}
	if !running {
		color.Yellow("Status: Not running")
		return
	}
	fmt.Printf("Status: %s (PID: %d)\n", color.GreenString("Running"), pid)

	ctx, cancel := requestContext()
	defer cancel()
	st, err := newAPIClient(cfg).Status(ctx)
	if err != nil {
		fmt.Printf("Web API: %s (start with 'appagent serve' to query agents)\n", color.YellowString("unavailable"))
		return
	}

	fmt.Printf("Poll Interval: %s\n", st.PollInterval)
	fmt.Printf("Backend:       %s\n", st.Backend)
	fmt.Printf("Database:      %s\n", st.DatabasePath)

	fmt.Printf("\nFocus:\n")
	if st.CurrentAgent == "" {
		fmt.Println("  Agent:   (none)")
	} else {
		fmt.Printf("  Agent:   %s\n", color.CyanString(st.CurrentAgent))
		fmt.Printf("  Scanner: %v\n", st.ScannerShown)
	}
	if st.Foreground.ProcessName != "" {
		fmt.Printf("  Process: %s\n", st.Foreground.ProcessName)
		fmt.Printf("  Title:   %s\n", st.Foreground.Title)
	}
	if st.ActiveFunctional != "" {
		fmt.Printf("\nActive: %s (task %s)\n", color.CyanString(st.ActiveFunctional), st.ActiveTask)
	}
}

func listAgents() {
	cfg := mustConfig()
	ctx, cancel := requestContext()
	defer cancel()

	reply, err := newAPIClient(cfg).Agents(ctx)
	if errors.Is(err, errUnreachable) {
		reply = offlineAgents(cfg)
		color.Yellow("Daemon not reachable; showing built-in agents\n")
	} else if err != nil {
		fatalf("%v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tPROCESSES\tAUTO-SWITCH\tCOMMANDS")
	for _, a := range reply.Apps {
		name := a.Name
		if a.Current {
			name = color.CyanString("*" + name)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\n", name, strings.Join(a.Processes, ","), a.AutoSwitch, len(a.Commands))
	}
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FUNCTIONAL\tCATEGORY\tACTIVE")
	for _, f := range reply.Functional {
		fmt.Fprintf(w, "%s\t%s\t%v\n", f.Name, f.Category, f.Active)
	}
	w.Flush()
}

// offlineAgents describes the built-in agents without a daemon.
func offlineAgents(cfg *config.Config) *agentsReply {
	out := &agentsReply{}
	for _, p := range []agent.Profile{agent.ChromeProfile(), agent.FirefoxProfile()} {
		a := agentReply{Name: p.Name, AutoSwitch: cfg.AutoSwitchFor(p.Name)}
		for _, proc := range p.Processes {
			a.Processes = append(a.Processes, proc.ProcessName)
		}
		for name := range p.Commands {
			a.Commands = append(a.Commands, name)
		}
		sort.Strings(a.Commands)
		out.Apps = append(out.Apps, a)
	}
	for _, f := range []agent.FunctionalAgent{agent.NewPhraseSpeakAgent(agent.Context{}), agent.NewSwitchWindowsAgent(agent.Context{})} {
		out.Functional = append(out.Functional, functionalReply{Name: f.Name(), Category: f.Category()})
	}
	return out
}

func listCommands() {
	cfg := mustConfig()
	ctx, cancel := requestContext()
	defer cancel()

	cmds, err := newAPIClient(cfg).Commands(ctx)
	if errors.Is(err, errUnreachable) {
		color.Yellow("Daemon not reachable; showing global commands\n")
		for _, name := range command.NewRegistry(command.Env{}).Commands() {
			fmt.Println(name)
		}
		return
	} else if err != nil {
		fatalf("%v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tSCOPE\tENABLED")
	for _, c := range cmds {
		scope := "agent"
		if c.Global {
			scope = "global"
		}
		enabled := color.RedString("no")
		if c.Enabled {
			enabled = color.GreenString("yes")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, scope, enabled)
	}
	w.Flush()
}

func runCommand(args []string) {
	if len(args) == 0 {
		fatalf("usage: appagent run <command> [arg]")
	}
	var arg string
	if len(args) > 1 {
		arg = args[1]
	}

	cfg := mustConfig()
	ctx, cancel := requestContext()
	defer cancel()

	reply, err := newAPIClient(cfg).Run(ctx, args[0], arg)
	if err != nil {
		fatalf("%v", err)
	}

	switch {
	case reply.Succeeded:
		success("%s: %s", reply.Command, reply.Outcome)
	case !reply.Handled:
		color.Yellow("%s: not handled by any agent", reply.Command)
		if reply.Suggestion != "" {
			fmt.Printf("Did you mean %s?\n", color.CyanString(reply.Suggestion))
		}
		os.Exit(1)
	default:
		fatalf("%s: %s", reply.Command, reply.Outcome)
	}
}

func typeText(args []string) {
	if len(args) == 0 {
		fatalf("usage: appagent type <text>")
	}
	cfg := mustConfig()
	ctx, cancel := requestContext()
	defer cancel()

	if err := newAPIClient(cfg).Type(ctx, strings.Join(args, " ")); err != nil {
		fatalf("%v", err)
	}
}

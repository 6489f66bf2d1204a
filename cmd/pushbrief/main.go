package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"pushbrief/internal/channel"
	"pushbrief/internal/config"
	"pushbrief/internal/daemon"
	"pushbrief/internal/plugin"
	"pushbrief/internal/runner"
	"pushbrief/pkg/logx"
	"pushbrief/plugins/exchange"
	"pushbrief/plugins/gold"
	"pushbrief/plugins/placeholder"
	"pushbrief/plugins/stocks"
)

const defaultConfigPath = "config/config.yaml"

// envOverrides let a systemd unit or container point at its config and log
// sink without wrapper scripts. Flags win over env vars when both are set.
type envOverrides struct {
	Config   string `env:"PUSHBRIEF_CONFIG"`
	LogLevel string `env:"PUSHBRIEF_LOG_LEVEL"`
	LogFile  string `env:"PUSHBRIEF_LOG_FILE"`
}

type cliOptions struct {
	configPath string
	scheduleID string
	dryRun     bool
	logLevel   string
	logFile    string
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "run":
		runMain(args, false)
	case "serve":
		runMain(args, true)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Println("unknown command:", cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage: pushbrief <run|serve> [flags]")
	fmt.Println("  run    evaluate schedules once (cron-style or --schedule override) and exit")
	fmt.Println("  serve  stay resident, evaluating schedules every minute with config hot reload")
}

func parseFlags(name string, args []string, withSchedule bool) cliOptions {
	var ev envOverrides
	if err := env.Parse(&ev); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	cfgDefault := ev.Config
	if cfgDefault == "" {
		cfgDefault = defaultConfigPath
	}
	levelDefault := ev.LogLevel
	if levelDefault == "" {
		levelDefault = "info"
	}

	var opts cliOptions
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", cfgDefault, "path to config yaml")
	fs.StringVar(&opts.logLevel, "log-level", levelDefault, "log level (trace|debug|info|warn|error)")
	fs.StringVar(&opts.logFile, "log-file", ev.LogFile, "append JSON logs to this file as well")
	if withSchedule {
		fs.StringVar(&opts.scheduleID, "schedule", "", "force one schedule id, bypassing cron matching")
		fs.BoolVar(&opts.dryRun, "dry-run", false, "execute plugins but deliver nothing")
	}
	_ = fs.Parse(args)
	return opts
}

func runMain(args []string, serve bool) {
	name := "run"
	if serve {
		name = "serve"
	}
	opts := parseFlags(name, args, !serve)

	logSvc, log := logx.New(logx.Config{
		Level:   opts.logLevel,
		Console: true,
		File:    logx.FileConfig{Enabled: opts.logFile != "", Path: opts.logFile},
	})
	defer logSvc.Close()
	log = log.With(logx.String("svc", "pushbrief"))

	client := &http.Client{Timeout: 10 * time.Second}

	plugins := plugin.NewRegistry()
	plugins.Register(
		placeholder.New(),
		stocks.New(log, client),
		gold.New(log, client),
		exchange.New(log, client),
	)

	channels := channel.NewRegistry()
	channels.Register("pushplus", channel.NewPushPlus(log, client))
	channels.Register("telegram", channel.NewTelegram(log, client))

	run := runner.New(log, plugins, channels)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if serve {
		serveMain(ctx, log, run, plugins, opts)
		return
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("fatal: config file not found:", opts.configPath)
		} else {
			fmt.Println("fatal:", err)
		}
		os.Exit(1)
	}

	if err := run.Run(ctx, cfg, runner.Options{
		ScheduleID: opts.scheduleID,
		DryRun:     opts.dryRun,
	}); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func serveMain(ctx context.Context, log logx.Logger, run *runner.Runner, plugins *plugin.Registry, opts cliOptions) {
	cfgMgr := config.NewManager(opts.configPath, log)
	cfgMgr.SetValidator(func(cfg *config.Config) error {
		return config.Validate(cfg, plugins)
	})
	cfgMgr.SetOnReload(func(cfg *config.Config) {
		log.Info("schedule set changed", logx.String("schedules", runner.Describe(cfg)))
	})
	if _, err := cfgMgr.Load(); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	d := daemon.New(log, run, cfgMgr)
	if err := d.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		log.Warn("shutdown incomplete", logx.Err(err))
	}
}

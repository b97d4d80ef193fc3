// Command mixerlink-monitor mirrors the live state of a mixing console
// and exposes it on an interactive prompt.
//
// Usage:
//
//	mixerlink-monitor [flags]
//
// Flags:
//
//	-config string    Configuration file path (YAML)
//	-host string      Console address; skips discovery
//	-port int         Console control port (0 uses the model default)
//	-model string     Console model: sq, qu
//	-log-file string  Capture protocol events to a file (CBOR)
//	-log-level string Log level: debug, info, warn, error (default "info")
//	-interactive      Enable the interactive command prompt
//	-state-dir string Directory for saved snapshot records
//	-timeout duration Discovery timeout (default 5s)
//
// Examples:
//
//	# Discover consoles on the local network
//	mixerlink-monitor
//
//	# Mirror an SQ console and capture the protocol exchange
//	mixerlink-monitor -host 192.168.1.20 -model sq -log-file show.mlog -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanctuarysoundapp/mixerlink-go/cmd/mixerlink-monitor/interactive"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/connection"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/discovery"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/log"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/persistence"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/session"
)

type options struct {
	ConfigFile  string
	Host        string
	Port        int
	Model       string
	LogFile     string
	LogLevel    string
	Interactive bool
	StateDir    string
	Timeout     time.Duration
}

var opts options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&opts.Host, "host", "", "Console address; skips discovery")
	flag.IntVar(&opts.Port, "port", 0, "Console control port (0 uses the model default)")
	flag.StringVar(&opts.Model, "model", "", "Console model: sq, qu")
	flag.StringVar(&opts.LogFile, "log-file", "", "Capture protocol events to a file (CBOR)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Enable the interactive command prompt")
	flag.StringVar(&opts.StateDir, "state-dir", "", "Directory for saved snapshot records")
	flag.DurationVar(&opts.Timeout, "timeout", 5*time.Second, "Discovery timeout")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := session.LoadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}

	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(opts.LogLevel),
	}))

	loggers := []log.Logger{log.NewSlogAdapter(slogger)}
	if opts.LogFile != "" {
		fl, err := log.NewFileLogger(opts.LogFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer fl.Close()
		loggers = append(loggers, fl)
	}

	sess := session.New(cfg)
	sess.SetLogger(log.NewMultiLogger(loggers...))
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// No target given: just browse and report.
	if opts.Host == "" && !opts.Interactive {
		return discoverAndPrint(ctx)
	}

	if opts.Host != "" {
		model := profile.Model(opts.Model)
		port := opts.Port
		if port == 0 {
			prof, err := profile.ForModel(model)
			if err != nil {
				return err
			}
			if cfg.UseTLS {
				port = prof.TLSPort()
			} else {
				port = prof.DefaultPort()
			}
		}
		if err := sess.Connect(ctx, opts.Host, port, model); err != nil {
			slogger.Warn("initial connect failed", "error", err)
		}
	}

	if opts.Interactive {
		var store *persistence.Store
		if opts.StateDir != "" {
			store = persistence.NewStore(opts.StateDir)
		}
		mon, err := interactive.New(sess, store)
		if err != nil {
			return err
		}
		mon.Run(ctx, cancel)
		return nil
	}

	// Non-interactive: report state changes until interrupted.
	sess.OnStateChange(func(st connection.State) {
		slogger.Info("connection state", "state", st.String())
	})
	<-ctx.Done()
	return nil
}

func discoverAndPrint(ctx context.Context) error {
	browseCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	browser := discovery.NewBrowser(discovery.BrowserConfig{})
	consoles, err := browser.FindAll(browseCtx)
	if err != nil {
		return err
	}
	if len(consoles) == 0 {
		fmt.Println("no consoles found")
		return nil
	}
	for _, c := range consoles {
		supported := ""
		if !c.Supported() {
			supported = " (unsupported)"
		}
		fmt.Printf("%s  model=%s%s  %s:%d\n", c.InstanceName, c.Model, supported, c.Addr(), c.Port)
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

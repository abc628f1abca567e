package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminclauss/tollgate/internal/config"
	"github.com/benjaminclauss/tollgate/internal/feed"
	"github.com/benjaminclauss/tollgate/internal/ledger"
	"github.com/benjaminclauss/tollgate/internal/server"
	"github.com/benjaminclauss/tollgate/internal/stats"
	"github.com/benjaminclauss/tollgate/internal/toll"
)

var (
	Version   = "dev" // default fallback
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "tollgated [port]",
		Short: "Toll-gate transaction server",
		Long: `tollgated records vehicle entry and exit transactions reported by toll
points over TCP, one request per connection. With no port argument, no
--listen flag, and no config file, it prompts for the port.`,
		Args:         cobra.MaximumNArgs(1),
		Version:      fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			addr, err := resolveListenAddr(cmd, cfg, listen, args, configPath != "")
			if err != nil {
				return err
			}
			cfg.Listen = addr

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, e.g. :9740 (overrides config)")
	return cmd
}

// resolveListenAddr picks the listen address: positional port, then --listen,
// then the config file. With none of those, it prompts on the terminal.
func resolveListenAddr(cmd *cobra.Command, cfg *config.Config, flagListen string, args []string, haveConfig bool) (string, error) {
	if len(args) == 1 {
		return portToAddr(args[0])
	}
	if flagListen != "" {
		return flagListen, nil
	}
	if haveConfig {
		return cfg.Listen, nil
	}

	fmt.Fprint(cmd.OutOrStdout(), "Enter the port number to listen on: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read port: %w", err)
	}
	return portToAddr(strings.TrimSpace(line))
}

func portToAddr(port string) (string, error) {
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("invalid port %q", port)
	}
	return fmt.Sprintf(":%d", p), nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	store, err := ledger.New(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer closeOrLog(store, "ledger")

	publisher, err := feed.New(cfg.Feed)
	if err != nil {
		return fmt.Errorf("open event feed: %w", err)
	}
	defer closeOrLog(publisher, "event feed")

	collector := stats.NewCollector(cfg.Stats.Rate)
	srv := server.New(toll.NewMachine(store), collector, publisher, server.Options{
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	})

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}
	slog.Info("server listening",
		"addr", lis.Addr(),
		"ledger", cfg.Ledger.Type,
		"feed", cfg.Feed.Type,
		"version", Version,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			slog.Info("shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx, lis)
	})
	g.Go(func() error {
		collector.Run(ctx, cfg.Stats.Interval())
		return nil
	})
	return g.Wait()
}

// newLogger builds the process logger: text to stdout, optionally teed to a
// log file.
func newLogger(logFile string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stdout
	closeLog := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closeLog = func() { _ = f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, nil)), closeLog, nil
}

func closeOrLog(c io.Closer, name string) {
	if err := c.Close(); err != nil {
		slog.Error("error closing closer", "closer", name, "error", err)
	}
}

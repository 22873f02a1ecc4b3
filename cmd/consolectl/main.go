// Package main implements consolectl, a diagnostic command-line client for
// the app-management console backend. It drives the same request pipeline
// the console UI uses (base-URL resolution, retry with backoff, fault
// collection) and can tail the realtime channel, so a deployment can be
// exercised end to end from a shell.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/c360/consoleclient/client"
	"github.com/c360/consoleclient/collector"
	"github.com/c360/consoleclient/config"
	"github.com/c360/consoleclient/logging"
	"github.com/c360/consoleclient/metric"
	"github.com/c360/consoleclient/platform"
	"github.com/c360/consoleclient/realtime"
	"github.com/c360/consoleclient/pkg/retry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "consolectl"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("consolectl failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		slog.Info("Configuration is valid", "origin", cfg.Origin)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack := buildStack(cfg, cliCfg, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stack.faults.Close(closeCtx); err != nil {
			slog.Warn("Fault collector drain failed", "error", err)
		}
	}()

	if cliCfg.MetricsPort > 0 {
		go serveMetrics(stack.metrics, cliCfg.MetricsPort)
	}

	if cliCfg.Path != "" {
		if err := doRequest(ctx, stack.api, cliCfg); err != nil {
			return err
		}
	}

	if cliCfg.Watch {
		if err := watch(ctx, stack, cfg, cliCfg); err != nil {
			return err
		}
	}

	if cliCfg.ExportPath != "" {
		if err := os.WriteFile(cliCfg.ExportPath, stack.logs.Export(), 0o644); err != nil {
			return fmt.Errorf("writing log export: %w", err)
		}
		slog.Info("Log export written", "path", cliCfg.ExportPath)
	}

	return nil
}

// stack bundles the wired pipeline components.
type stack struct {
	host    platform.Host
	logs    *logging.Logger
	metrics *metric.Metrics
	faults  *collector.Collector
	api     *client.Client
}

func buildStack(cfg config.Config, cliCfg *CLIConfig, logger *slog.Logger) *stack {
	host := platform.HostFromOrigin(cfg.Origin)
	logs := logging.New(logger, logging.WithEnvironment(logging.Environment{
		UserAgent: appName + "/" + Version,
		URL:       cfg.Origin,
	}))
	metrics := metric.New()
	surface := platform.NewLogSurface(logger)

	tokens := platform.NewMemoryTokenStore()
	if cliCfg.Token != "" {
		tokens.SetToken(cliCfg.Token)
	}

	baseURL := platform.ResolveBaseURL(host, cfg.APIBaseOverride)
	reportEndpoint := cfg.Collector.Endpoint
	if strings.HasPrefix(reportEndpoint, "/") {
		reportEndpoint = baseURL + reportEndpoint
	}

	collectorCfg := collector.DefaultConstructorConfig()
	collectorCfg.Enabled = cfg.Collector.Enabled
	collectorCfg.Endpoint = reportEndpoint
	collectorCfg.DedupeWindow = cfg.Collector.DedupeWindow
	collectorCfg.BatchInterval = cfg.Collector.BatchInterval
	collectorCfg.MaxBatchSize = cfg.Collector.MaxBatchSize
	collectorCfg.AppName = cfg.AppName
	collectorCfg.Hostname = host.Hostname
	collectorCfg.PageURL = cfg.Origin
	collectorCfg.UserAgent = appName + "/" + Version
	collectorCfg.Tokens = tokens
	collectorCfg.Logger = logs
	collectorCfg.Metrics = metrics
	faults := collector.New(collectorCfg)
	faults.Init()

	api := client.New(client.ConstructorConfig{
		Host:            host,
		APIBaseOverride: cfg.APIBaseOverride,
		Timeout:         cfg.Timeout,
		Retry: retry.Config{
			MaxRetries:   cfg.Retry.MaxRetries,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
		},
		Tokens:    tokens,
		Notifier:  surface,
		Navigator: surface,
		Logger:    logs,
		Faults:    faults,
		Metrics:   metrics,
	})

	return &stack{host: host, logs: logs, metrics: metrics, faults: faults, api: api}
}

func doRequest(ctx context.Context, api *client.Client, cliCfg *CLIConfig) error {
	req := client.Request{
		Method: strings.ToUpper(cliCfg.Method),
		Path:   cliCfg.Path,
	}
	if cliCfg.AppID != "" {
		req.Params = map[string]string{"app_id": cliCfg.AppID}
	}
	if cliCfg.Body != "" {
		var body map[string]any
		if err := json.Unmarshal([]byte(cliCfg.Body), &body); err != nil {
			return fmt.Errorf("parsing request body: %w", err)
		}
		req.Body = body
	}

	data, err := api.Send(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func printJSON(data json.RawMessage) error {
	if len(data) == 0 {
		fmt.Println("null")
		return nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

// watch connects the realtime channel and prints every event until the
// context is cancelled, the watch duration elapses, or the channel gives up
// reconnecting.
func watch(ctx context.Context, stack *stack, cfg config.Config, cliCfg *CLIConfig) error {
	channel := realtime.New(realtime.ConstructorConfig{
		Host:                 stack.host,
		Path:                 cfg.Realtime.Path,
		HeartbeatInterval:    cfg.Realtime.HeartbeatInterval,
		ReconnectInterval:    cfg.Realtime.ReconnectInterval,
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		Logger:               stack.logs,
		Notifier:             platform.NewLogSurface(slog.Default()),
		Metrics:              stack.metrics,
	})
	defer channel.Disconnect()

	gaveUp := make(chan struct{})
	channel.On(realtime.EventMaxReconnectReached, func(json.RawMessage) { close(gaveUp) })
	for _, event := range []string{
		realtime.EventMonitor,
		realtime.EventAlert,
		realtime.EventNotification,
		realtime.EventLog,
		realtime.EventMessage,
	} {
		channel.On(event, func(data json.RawMessage) {
			fmt.Printf("[%s] %s %s\n", time.Now().Format(time.RFC3339), event, string(data))
		})
	}

	if err := channel.Connect(cliCfg.AppID, cliCfg.UserID); err != nil {
		return err
	}

	var deadline <-chan time.Time
	if cliCfg.WatchFor > 0 {
		timer := time.NewTimer(cliCfg.WatchFor)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-ctx.Done():
		slog.Info("Interrupted, closing channel")
	case <-deadline:
		slog.Info("Watch duration elapsed, closing channel")
	case <-gaveUp:
		return fmt.Errorf("realtime channel gave up after %d reconnect attempts", cfg.Realtime.MaxReconnectAttempts)
	}
	return nil
}

func serveMetrics(metrics *metric.Metrics, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	addr := fmt.Sprintf(":%d", port)
	slog.Info("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("Metrics server stopped", "error", err)
	}
}

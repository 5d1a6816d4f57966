package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"retrochat/pkg/ai"
	_ "retrochat/pkg/ai/providers"
	"retrochat/pkg/bridge"
	"retrochat/pkg/config"
	"retrochat/pkg/logging"
	"retrochat/pkg/port"
	"retrochat/pkg/version"

	"github.com/spf13/pflag"
)

const programName = "retrochat"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flagSet := newFlagSet()
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion, _ := flagSet.GetBool("version"); showVersion {
		fmt.Fprintln(stdout, version.Info(programName))
		return nil
	}

	cfg, err := loadConfig(flagSet)
	if err != nil {
		return err
	}

	if listProviders, _ := flagSet.GetBool("list-providers"); listProviders {
		printProviders(stdout, cfg)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	info, ok := ai.DefaultRegistry.GetProviderInfo(ai.ProviderType(cfg.LLMProvider))
	if !ok {
		return fmt.Errorf("invalid configuration: unsupported LLM provider: %s (available: %s)",
			cfg.LLMProvider, strings.Join(providerTypes(), ", "))
	}

	logger, err := logging.Init(cfg)
	if err != nil {
		slog.Warn("log_file_unavailable", "path", cfg.LogFile, "error", err)
	}

	provider, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	p, err := port.Open(cfg.Serial)
	if err != nil {
		logger.Error("port_open_failed", "port", cfg.Serial.Port, "error", err)
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Unblock a pending read as soon as we are interrupted.
	go func() {
		<-ctx.Done()
		_ = p.Close()
	}()

	b := bridge.New(p, provider, bridge.OptionsFromConfig(cfg))
	printBanner(stdout, cfg, info, p.Name())
	logger.Info("retrochat_started",
		"version", version.Short(),
		"session_id", b.SessionID(),
		"port", p.Name(),
		"baud_rate", cfg.Serial.BaudRate,
		"provider", cfg.LLMProvider,
		"endpoint", info.EndpointURL(cfg),
		"model", cfg.Model,
	)

	if err := b.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "\nStopped.")
	return nil
}

func newFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [port]\n\n", programName)
		fmt.Fprintln(os.Stderr, "Bridges a serial terminal to a chat model. Type /new on the terminal to start over.")
		fmt.Fprintln(os.Stderr)
		flagSet.PrintDefaults()
	}

	flagSet.Int("baud", 0, "serial baud rate (default 9600)")
	flagSet.String("model", "", "model name (default gemma3:12b)")
	flagSet.String("server", "", "completion server host (default localhost)")
	flagSet.Int("server_port", 0, "completion server port (default 11434)")
	flagSet.String("provider", "", "LLM provider: ollama or openai")
	flagSet.Bool("pty", false, "allocate a pseudo-terminal and link it at the port path")
	flagSet.String("config", "", "config file path (default ~/.retrochat/config.json)")
	flagSet.String("log-level", "", "log level: debug, info, warn, error")
	flagSet.String("log-file", "", "write logs to this file instead of stderr")
	flagSet.Bool("list-providers", false, "list the available LLM providers and exit")
	flagSet.Bool("version", false, "print version information and exit")
	return flagSet
}

func loadConfig(flagSet *pflag.FlagSet) (config.Config, error) {
	path, _ := flagSet.GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.GetConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		if explicit {
			return config.Config{}, err
		}
		slog.Warn("config_load_failed", "config_path", path, "error", err)
		config.LoadDotEnv(".env")
		cfg = config.ApplyEnv(config.Default())
	}

	return applyFlags(cfg, flagSet)
}

// applyFlags overrides cfg with the flags the user actually set.
func applyFlags(cfg config.Config, flagSet *pflag.FlagSet) (config.Config, error) {
	switch args := flagSet.Args(); len(args) {
	case 0:
	case 1:
		cfg.Serial.Port = args[0]
	default:
		return cfg, fmt.Errorf("unexpected argument: %s", args[1])
	}

	if flagSet.Changed("baud") {
		cfg.Serial.BaudRate, _ = flagSet.GetInt("baud")
	}
	if flagSet.Changed("model") {
		cfg.Model, _ = flagSet.GetString("model")
	}
	if flagSet.Changed("server") {
		cfg.Server, _ = flagSet.GetString("server")
	}
	if flagSet.Changed("server_port") {
		cfg.ServerPort, _ = flagSet.GetInt("server_port")
	}
	if flagSet.Changed("provider") {
		cfg.LLMProvider, _ = flagSet.GetString("provider")
	}
	if flagSet.Changed("pty") {
		cfg.Serial.PTY, _ = flagSet.GetBool("pty")
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel, _ = flagSet.GetString("log-level")
	}
	if flagSet.Changed("log-file") {
		cfg.LogFile, _ = flagSet.GetString("log-file")
	}
	return cfg, nil
}

func printBanner(w io.Writer, cfg config.Config, info ai.ProviderInfo, portName string) {
	fmt.Fprintf(w, "%s %s\n", programName, version.Short())
	fmt.Fprintf(w, "Port:     %s\n", portName)
	fmt.Fprintf(w, "Baud:     %d\n", cfg.Serial.BaudRate)
	fmt.Fprintf(w, "Provider: %s (%s)\n", info.Name, info.EndpointURL(cfg))
	fmt.Fprintf(w, "Model:    %s\n", cfg.Model)
	fmt.Fprintln(w, "Ready. Waiting for Partner...")
}

// printProviders lists every registered provider with the URL it would
// use under cfg.
func printProviders(w io.Writer, cfg config.Config) {
	for _, info := range ai.DefaultRegistry.ListProviders() {
		marker := " "
		if string(info.Type) == cfg.LLMProvider {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-8s %s: %s\n", marker, info.Type, info.Name, info.Description)
		fmt.Fprintf(w, "           %s\n", info.EndpointURL(cfg))
	}
}

func providerTypes() []string {
	var types []string
	for _, info := range ai.DefaultRegistry.ListProviders() {
		types = append(types, string(info.Type))
	}
	return types
}

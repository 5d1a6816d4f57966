package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"retrochat/pkg/ai"
	"retrochat/pkg/config"
)

func parse(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	flagSet := newFlagSet()
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error: %v", args, err)
	}
	return applyFlags(config.Default(), flagSet)
}

func TestApplyFlags_Defaults(t *testing.T) {
	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}
	def := config.Default()
	if cfg.Serial != def.Serial || cfg.Model != def.Model || cfg.ServerPort != def.ServerPort {
		t.Errorf("Expected defaults untouched, got %+v", cfg)
	}
}

func TestApplyFlags_Overrides(t *testing.T) {
	cfg, err := parse(t,
		"/dev/ttyUSB0",
		"--baud", "1200",
		"--model", "llama3.2",
		"--server", "gpu.lan",
		"--server_port", "8080",
		"--provider", "openai",
		"--pty",
		"--log-level", "debug",
		"--log-file", "/tmp/retrochat.log",
	)
	if err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}

	if cfg.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("Expected positional port, got %q", cfg.Serial.Port)
	}
	if cfg.Serial.BaudRate != 1200 {
		t.Errorf("Expected baud 1200, got %d", cfg.Serial.BaudRate)
	}
	if cfg.Model != "llama3.2" {
		t.Errorf("Expected model llama3.2, got %q", cfg.Model)
	}
	if cfg.ChatURL() != "http://gpu.lan:8080/api/chat" {
		t.Errorf("Unexpected chat URL %q", cfg.ChatURL())
	}
	if cfg.LLMProvider != config.ProviderOpenAI {
		t.Errorf("Expected openai provider, got %q", cfg.LLMProvider)
	}
	if !cfg.Serial.PTY {
		t.Error("Expected PTY mode")
	}
	if cfg.LogLevel != "debug" || cfg.LogFile != "/tmp/retrochat.log" {
		t.Errorf("Unexpected logging settings %q %q", cfg.LogLevel, cfg.LogFile)
	}
}

func TestApplyFlags_TooManyArgs(t *testing.T) {
	_, err := parse(t, "/dev/ttyS0", "/dev/ttyS1")
	if err == nil || !strings.Contains(err.Error(), "/dev/ttyS1") {
		t.Errorf("Expected unexpected argument error, got %v", err)
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--version"}, &out); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "retrochat ") {
		t.Errorf("Unexpected version output %q", out.String())
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	if err := run([]string{"--bogus"}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unknown flag")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	err := run([]string{"--config", configPath, "--baud", "0"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Expected invalid configuration error, got %v", err)
	}
}

func TestRun_UnknownProvider(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	err := run([]string{"--config", configPath, "--provider", "gemini"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error for unregistered provider")
	}
	if !strings.Contains(err.Error(), "unsupported LLM provider: gemini") || !strings.Contains(err.Error(), "ollama, openai") {
		t.Errorf("Expected error listing available providers, got %v", err)
	}
}

func TestRun_ListProviders(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	var out bytes.Buffer
	err := run([]string{"--config", configPath, "--list-providers", "--provider", "openai", "--server", "gpu.lan"}, &out)
	if err != nil {
		t.Fatalf("run() error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"  ollama ",
		"http://gpu.lan:11434/api/chat",
		"* openai ",
		"http://gpu.lan:11434/v1/chat/completions",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Provider list missing %q: %q", want, got)
		}
	}
}

func TestRun_PortOpenFailure(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	device := filepath.Join(dir, "ttyNOPE")

	var out bytes.Buffer
	err := run([]string{"--config", configPath, "--log-level", "error", device}, &out)
	if err == nil {
		t.Fatal("Expected error when the port cannot be opened")
	}
	if strings.Contains(out.String(), "Ready.") {
		t.Errorf("Banner printed despite failure: %q", out.String())
	}
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default()
	info, ok := ai.DefaultRegistry.GetProviderInfo(ai.ProviderOllama)
	if !ok {
		t.Fatal("Expected ollama provider to be registered")
	}
	printBanner(&out, cfg, info, "/tmp/proxy_pty")

	got := out.String()
	for _, want := range []string{
		"/tmp/proxy_pty",
		"9600",
		"gemma3:12b",
		"Provider: Ollama (http://localhost:11434/api/chat)",
		"Ready. Waiting for Partner...",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Banner missing %q: %q", want, got)
		}
	}
}

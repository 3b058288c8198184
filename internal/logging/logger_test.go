package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/silogos/Antree-sub001/internal/config"
	"github.com/silogos/Antree-sub001/internal/logging"
)

func TestNewFromConfigWritesToLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "console"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}

	logger.Info("daemon starting", logging.String("address", "127.0.0.1:0"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "antree.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "daemon starting") {
		t.Fatalf("log file missing message: %q", content)
	}
	if !strings.Contains(string(content), "address=127.0.0.1:0") {
		t.Fatalf("log file missing attribute: %q", content)
	}
}

func TestConsoleHandlerBracketsComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "sse-hub")
	component.Info("subscriber added", logging.Int("topics", 2))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(content))
	if !strings.Contains(line, "[sse-hub]") {
		t.Fatalf("component not bracketed: %q", line)
	}
	if !strings.Contains(line, "topics=2") {
		t.Fatalf("attribute missing: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as a key-value pair: %q", line)
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.json")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("slow write", logging.String("subscriber_id", "abc"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, content)
	}
	if entry["msg"] != "slow write" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["level"] != "warn" {
		t.Fatalf("level = %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("timestamp key ts missing")
	}
	if entry["subscriber_id"] != "abc" {
		t.Fatalf("subscriber_id = %v", entry["subscriber_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "filtered.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "quiet") {
		t.Fatalf("info message leaked past warn level: %q", content)
	}
	if !strings.Contains(string(content), "loud") {
		t.Fatalf("warn message missing: %q", content)
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitLevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "skapsec.log")
	if err := Init("debug", path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Log.SetOutput(os.Stderr) })

	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", Log.GetLevel())
	}

	WithComponent("test").Info("hello file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") || !strings.Contains(string(data), "component=test") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestInitUnknownLevelFallsBack(t *testing.T) {
	if err := Init("chatty", ""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", Log.GetLevel())
	}
}

package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")

	if err := Enable(path); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	Log("zone", "committed id=%d", 7)
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "committed id=7") {
		t.Errorf("log missing message:\n%s", out)
	}
	if !strings.Contains(out, "zone") {
		t.Errorf("log missing category:\n%s", out)
	}
}

func TestLogDisabledIsNoop(t *testing.T) {
	Disable()
	// must not panic with no logger
	Log("tick", "ignored %d", 1)
	LogEvery(2, "tick", "ignored")
}

package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNoopBeforeInit(t *testing.T) {
	Close()
	Info("ignored %d", 1)
	WithFields(Fields{"k": "v"}).Info("ignored")
	if GetWriter() != io.Discard {
		t.Error("GetWriter() should be io.Discard before Init")
	}
}

func TestWithFieldsBeforeInitSharesDiscardLogger(t *testing.T) {
	Close()
	a := WithFields(Fields{"action": "click"})
	b := WithFields(Fields{"action": "fill"})
	if a.Logger != b.Logger {
		t.Error("entries before Init should share one logger")
	}
	if a.Logger.IsLevelEnabled(logrus.InfoLevel) {
		t.Error("discard logger should not format info entries")
	}
	if a.Data["action"] != "click" || b.Data["action"] != "fill" {
		t.Errorf("fields = %v / %v", a.Data, b.Data)
	}
}

func TestInitWritesLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()

	Info("hello %s", "info")
	Debug("hello debug")
	Warn("hello warn")
	Error("hello error")
	WithFields(Fields{"screen": "LoginPage"}).Info("resolved")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"level=info", "hello info", "level=debug", "level=warning", "level=error", "screen=LoginPage"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatal(err)
	}
	defer Close()

	if err := SetLevel("warn"); err != nil {
		t.Fatal(err)
	}
	Info("quiet")
	Warn("loud")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "quiet") {
		t.Error("info message written below warn level")
	}
	if !strings.Contains(string(data), "loud") {
		t.Error("warn message missing")
	}
	if err := SetLevel("nope"); err == nil {
		t.Error("SetLevel(nope) should fail")
	}
}

func TestInitBadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "dir", "run.log")); err == nil {
		t.Error("Init() should fail for missing directory")
	}
}

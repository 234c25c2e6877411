package log

import "os"
import "strings"
import "testing"
import "path/filepath"

func TestSetLogger(t *testing.T) {
	logfile := filepath.Join(t.TempDir(), "xmalloc.log")
	logline := "hello world\n"

	ref := &defaultLogger{level: logLevelIgnore, output: nil}
	log := SetLogger(ref, nil).(*defaultLogger)
	if log.level != logLevelIgnore || log.output != nil {
		t.Errorf("expected %v, got %v", ref, log)
	}

	setts := map[string]interface{}{
		"log.level": "info",
		"log.file":  logfile,
	}
	clog := SetLogger(nil, setts)
	defer SetLogger(nil, nil)
	clog.Infof(logline)
	clog.Debugf(logline)
	Warnf(logline)
	Debugf(logline)
	if data, err := os.ReadFile(logfile); err != nil {
		t.Error(err)
	} else if s := string(data); !strings.Contains(s, "hello world") {
		t.Errorf("expected %v, got %v", logline, s)
	} else if n := strings.Count(s, "\n"); n != 2 {
		t.Errorf("expected %v lines, got %v: %q", 2, n, s)
	} else if !strings.Contains(s, "[Warng]") || strings.Contains(s, "[Debug]") {
		t.Errorf("unexpected levels in %q", s)
	}

	clog.SetLogLevel("ignore")
	Errorf(logline)
	if data, _ := os.ReadFile(logfile); strings.Count(string(data), "\n") != 2 {
		t.Errorf("ignore level shall drop every line")
	}
}

func TestLogLevel(t *testing.T) {
	testcases := []struct {
		name  string
		level LogLevel
		ref   string
	}{
		{"ignore", logLevelIgnore, "Ignor"},
		{"error", logLevelError, "Error"},
		{"warn", logLevelWarn, "Warng"},
		{"INFO", logLevelInfo, "Infom"},
		{"debug", logLevelDebug, "Debug"},
	}
	for _, tcase := range testcases {
		if l := string2logLevel(tcase.name); l != tcase.level {
			t.Errorf("expected %v, got %v", tcase.level, l)
		} else if s := l.String(); s != tcase.ref {
			t.Errorf("expected %v, got %v", tcase.ref, s)
		}
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		string2logLevel("verbose")
	}()
}

package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestDebugDisabled(t *testing.T) {
	DebugEnabled = false
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	Debug("this should not appear")

	if buf.Len() > 0 {
		t.Errorf("Debug output when disabled: %s", buf.String())
	}
}

func TestDebugEnabled(t *testing.T) {
	DebugEnabled = true
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	Debug("test message %d", 42)

	if !bytes.Contains(buf.Bytes(), []byte("DEBUG: test message 42")) {
		t.Errorf("Expected debug output, got: %s", buf.String())
	}
	DebugEnabled = false
}

func TestStdWritesThroughLog(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	Std.Printf("INFO: node %d online", 3)

	if !strings.Contains(buf.String(), "INFO: node 3 online") {
		t.Errorf("expected message in log output, got %q", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Printf("WARN: %s", "one")
	r.Printf("ERROR: %s", "two")

	if len(r.Messages) != 2 || r.Messages[1] != "ERROR: two" {
		t.Errorf("unexpected recorded messages: %v", r.Messages)
	}
}

func TestOrStd(t *testing.T) {
	if OrStd(nil) != Std {
		t.Error("expected Std for nil logger")
	}
	r := &Recorder{}
	if OrStd(r) != Logger(r) {
		t.Error("expected the supplied logger back")
	}
}

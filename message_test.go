package nvrhi

import (
	"log/slog"
	"testing"
)

func TestSeverityString(t *testing.T) {
	cases := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "Info"},
		{SeverityWarning, "Warning"},
		{SeverityError, "Error"},
		{SeverityFatal, "Fatal"},
		{Severity(7), "Unknown(7)"},
	}
	for _, c := range cases {
		if got := c.severity.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.severity, got, c.want)
		}
	}
}

func TestDefaultMessageCallbackForwardsToLogger(t *testing.T) {
	h := &recordHandler{}
	SetLogger(slog.New(h))
	defer SetLogger(nil)

	cb := DefaultMessageCallback()
	cb.Message(SeverityInfo, "informational")
	cb.Message(SeverityWarning, "suspicious")
	cb.Message(SeverityError, "misuse")
	cb.Message(SeverityFatal, "fatal")

	msgs := h.messages()
	want := []string{"informational", "suspicious", "misuse", "fatal"}
	if len(msgs) != len(want) {
		t.Fatalf("captured %d records, want %d: %v", len(msgs), len(want), msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("record[%d] = %q, want %q", i, msgs[i], want[i])
		}
	}

	levels := []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError, slog.LevelError}
	for i, r := range h.records {
		if r.Level != levels[i] {
			t.Errorf("record[%d] level = %v, want %v", i, r.Level, levels[i])
		}
	}
}

func TestAbortOnFatal(t *testing.T) {
	msgs := &testMessages{}
	d, err := NewDeviceWithBackend(NewNullBackend(), DeviceConfig{
		MessageCallback: msgs,
		AbortOnFatal:    true,
	})
	if err != nil {
		t.Fatalf("NewDeviceWithBackend: %v", err)
	}
	defer d.Close()

	// Non-fatal reports pass through without panicking.
	d.MessageCallback().Message(SeverityError, "recoverable")
	if msgs.count(SeverityError) != 1 {
		t.Fatalf("error report not forwarded")
	}

	defer func() {
		if recover() == nil {
			t.Error("fatal report did not panic")
		}
		if msgs.count(SeverityFatal) != 1 {
			t.Error("fatal report not forwarded before panic")
		}
	}()
	d.MessageCallback().Message(SeverityFatal, "device lost")
}

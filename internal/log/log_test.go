package log

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2026, 3, 4, 10, 45, 0, 0, time.UTC)

	entry := Format(ts, LevelWarn, CatRegistry, "update target missing", "id", "7", "op", "update")
	require.Equal(t, "2026-03-04T10:45:00 [WARN] [registry] update target missing id=7 op=update", entry)

	orphan := Format(ts, LevelDebug, CatLookup, "tick", "version")
	require.True(t, strings.HasSuffix(orphan, "version=<missing>"))
}

func TestInitWriter_WritesAndBuffers(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer Reset()

	Info(CatSession, "login succeeded", "email", "admin@user.com")
	ErrorErr(CatAPI, "list failed", fmt.Errorf("connection refused"))

	out := buf.String()
	require.Contains(t, out, "[INFO] [session] login succeeded email=admin@user.com")
	require.Contains(t, out, "[ERROR] [api] list failed error=connection refused")

	recent := GetRecentLogs(10)
	require.Len(t, recent, 2)
	require.Contains(t, recent[1], "list failed")
}

func TestMinLevelAndEnabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer Reset()

	SetMinLevel(LevelWarn)
	Debug(CatUI, "hidden")
	Warn(CatUI, "shown")

	SetEnabled(false)
	Error(CatUI, "also hidden")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestRingBufferWraps(t *testing.T) {
	InitWriter(nil)
	defer Reset()

	for i := 0; i < bufferCapacity+5; i++ {
		Debug(CatCache, "entry", "n", i)
	}

	recent := GetRecentLogs(bufferCapacity * 2)
	require.Len(t, recent, bufferCapacity)
	require.Contains(t, recent[0], "n=5")
	require.Contains(t, recent[len(recent)-1], fmt.Sprintf("n=%d", bufferCapacity+4))

	ClearBuffer()
	require.Empty(t, GetRecentLogs(10))
}

func TestInit_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)

	Info(CatConfig, "Created default config", "path", "/tmp/x.yaml")
	cleanup()
	Reset()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [config] Created default config path=/tmp/x.yaml")
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	InitWriter(nil)
	defer Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Info(CatMode, "Switching mode", "to", "clients")

	msg := listener.Listen()()
	event, ok := msg.(LogEvent)
	require.True(t, ok)
	require.Contains(t, event.Payload, "Switching mode to=clients")
}

func TestLoggingWithoutInitIsNoop(t *testing.T) {
	Reset()
	Info(CatUI, "dropped")
	require.Nil(t, GetRecentLogs(5))
	require.Nil(t, NewListener(context.Background()))
}

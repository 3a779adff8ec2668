package main

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmtts/debuglog"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestPrintHistoryShowsRecentLines(t *testing.T) {
	logger, err := debuglog.New(false, false, "")
	require.NoError(t, err)
	defer logger.Close()

	logger.Msg("PIPELINE", "tracking 2 regions with CSRT")
	logger.Msg("TRACKING", "track 1 lost, keeping (40,140)-(60,160)", "1")

	out := captureStderr(t, func() { printHistory(logger.History()) })
	assert.Contains(t, out, "Recent log:")
	assert.Contains(t, out, "[PIPELINE] tracking 2 regions with CSRT")
	assert.Contains(t, out, "[TRACKING] track 1 lost")
}

func TestPrintHistoryEmpty(t *testing.T) {
	out := captureStderr(t, func() { printHistory(nil) })
	assert.Empty(t, out)

	out = captureStderr(t, func() {
		printHistory([]debuglog.Message{{Timestamp: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), Component: "MAIN", Message: "x"}})
	})
	assert.Contains(t, out, "09:30:00.000 [MAIN] x")
}

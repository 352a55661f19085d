package render

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuffer_GetRecent(t *testing.T) {
	lb := NewLogBuffer(3)
	for i, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		lb.Add(LogEntry{Level: level, Message: string(rune('a' + i))})
	}

	all := lb.GetRecent(0, slog.LevelDebug)
	require.Len(t, all, 3)
	assert.Equal(t, "d", all[0].Message)
	assert.Equal(t, "b", all[2].Message)

	warn := lb.GetRecent(5, slog.LevelWarn)
	require.Len(t, warn, 2)
	assert.Equal(t, "d", warn[0].Message)

	assert.Len(t, lb.GetRecent(1, slog.LevelDebug), 1)

	lb.Clear()
	assert.Empty(t, lb.GetRecent(0, slog.LevelDebug))
}

func TestLogBufferHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	level := new(slog.LevelVar)
	logger := slog.New(NewLogBufferHandler(lb, level))

	logger.Debug("hidden")
	logger.With("script", "boot").WithGroup("port").Info("write", "n", 1)
	level.Set(slog.LevelDebug)
	logger.Debug("shown")

	entries := lb.GetRecent(0, slog.LevelDebug)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, "write script=boot port.n=1", entries[1].Message)
}

func TestFormatLogEntry(t *testing.T) {
	lb := NewLogBuffer(4)
	lb.Add(LogEntry{Level: slog.LevelInfo, Message: "reset"})
	lb.SetFrame(42)
	lb.Add(LogEntry{Level: slog.LevelWarn, Message: "cpu halted"})
	lb.Add(LogEntry{Level: slog.Level(2), Message: "odd"})

	entries := lb.GetRecent(0, slog.LevelDebug)
	require.Len(t, entries, 3)
	assert.Equal(t, "f42     ??? odd", FormatLogEntry(entries[0]))
	assert.Equal(t, "f42     WRN cpu halted", FormatLogEntry(entries[1]))
	assert.Equal(t, "f0      INF reset", FormatLogEntry(entries[2]))
}

func TestLevelMeter(t *testing.T) {
	testCases := []struct {
		desc  string
		peak  int16
		width int
		want  string
	}{
		{desc: "silent", peak: 0, width: 4, want: "····"},
		{desc: "half", peak: 16384, width: 4, want: "██··"},
		{desc: "full", peak: 32767, width: 4, want: "████"},
		{desc: "no room", peak: 32767, width: 0, want: ""},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, LevelMeter(tC.peak, tC.width))
		})
	}
}

func TestHexRowAndTruncate(t *testing.T) {
	assert.Equal(t, "00F0: 0A 80 00", HexRow(0x00F0, []byte{0x0A, 0x80, 0x00}))
	assert.Equal(t, "abc...", Truncate("abcdefgh", 6))
	assert.Equal(t, "ab", Truncate("abcdefgh", 2))
	assert.Equal(t, "abc", Truncate("abc", 6))
}

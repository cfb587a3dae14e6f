package listgo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewLogger(handler), &buf
}

func TestLoggerQueryLevels(t *testing.T) {
	ctx := context.Background()

	l, buf := newBufferLogger(slog.LevelDebug)
	l.LogQuery(ctx, 3, 20, "foo", 5, nil)
	assert.Contains(t, buf.String(), "query completed")
	assert.Contains(t, buf.String(), `"page":3`)
	assert.Contains(t, buf.String(), `"search":"foo"`)

	// Successful queries log at debug and disappear at info level.
	l, buf = newBufferLogger(slog.LevelInfo)
	l.LogQuery(ctx, 0, 20, "foo", 5, nil)
	assert.Empty(t, buf.String())

	// Failures always surface.
	l.LogQuery(ctx, -1, 20, "", 0, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestLoggerWith(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)

	l.WithPage(3).WithSearch("abc").WithCount(7).Info("ok")
	out := buf.String()
	assert.Contains(t, out, `"page":3`)
	assert.Contains(t, out, `"search":"abc"`)
	assert.Contains(t, out, `"count":7`)
}

func TestLoggerSnapshotAndReplaceLogs(t *testing.T) {
	ctx := context.Background()
	l, buf := newBufferLogger(slog.LevelDebug)

	l.LogReplaceOrder(ctx, 3, nil)
	l.LogReplaceSelection(ctx, 2, errors.New("closed"))
	l.LogSnapshot(ctx, nil)

	out := buf.String()
	assert.Contains(t, out, "order replaced")
	assert.Contains(t, out, `"count":3`)
	assert.Contains(t, out, "selection replace failed")
	assert.Contains(t, out, "snapshot saved")
}

func TestNoopLoggerDiscards(t *testing.T) {
	// Must not panic and must not write anywhere observable.
	l := NoopLogger()
	l.Info("dropped")
	l.Error("dropped too")
	l.LogQuery(context.Background(), 0, 1, "", 0, errors.New("x"))
}

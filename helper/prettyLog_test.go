package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPrettyHandler(t *testing.T) {
	t.Run("Create PrettyHandler with default options", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{},
		}

		handler := NewPrettyHandler(&buf, opts)

		assert.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
		assert.NotNil(t, handler.Handler, "Expected handler to have a non-nil Handler field")
		assert.NotNil(t, handler.l, "Expected handler to have a non-nil logger field")
	})

	t.Run("Create PrettyHandler with custom level", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		}

		handler := NewPrettyHandler(&buf, opts)

		assert.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("Handle DEBUG level log", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		}
		handler := NewPrettyHandler(&buf, opts)

		record := slog.NewRecord(time.Now(), slog.LevelDebug, "debug message", 0)
		record.AddAttrs(slog.String("key", "value"))

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		output := buf.String()
		assert.Contains(t, output, "DEBUG:", "Expected output to contain DEBUG level")
		assert.Contains(t, output, "debug message", "Expected output to contain the message")
		assert.Contains(t, output, "key", "Expected output to contain attribute key")
		assert.Contains(t, output, "value", "Expected output to contain attribute value")
	})

	t.Run("Handle INFO level log", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{},
		}
		handler := NewPrettyHandler(&buf, opts)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "info message", 0)
		record.AddAttrs(slog.Int("count", 42))

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		output := buf.String()
		assert.Contains(t, output, "INFO:", "Expected output to contain INFO level")
		assert.Contains(t, output, "info message", "Expected output to contain the message")
		assert.Contains(t, output, "count", "Expected output to contain attribute key")
		assert.Contains(t, output, "42", "Expected output to contain attribute value")
	})

	t.Run("Handle WARN level log", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{},
		}
		handler := NewPrettyHandler(&buf, opts)

		record := slog.NewRecord(time.Now(), slog.LevelWarn, "warning message", 0)
		record.AddAttrs(slog.Bool("flag", true))

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		output := buf.String()
		assert.Contains(t, output, "WARN:", "Expected output to contain WARN level")
		assert.Contains(t, output, "warning message", "Expected output to contain the message")
		assert.Contains(t, output, "flag", "Expected output to contain attribute key")
		assert.Contains(t, output, "true", "Expected output to contain attribute value")
	})

	t.Run("Handle ERROR level log", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{},
		}
		handler := NewPrettyHandler(&buf, opts)

		record := slog.NewRecord(time.Now(), slog.LevelError, "error message", 0)
		record.AddAttrs(slog.String("trial_id", "NCT00000001"))

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		output := buf.String()
		assert.Contains(t, output, "ERROR:", "Expected output to contain ERROR level")
		assert.Contains(t, output, "error message", "Expected output to contain the message")
		assert.Contains(t, output, "NCT00000001", "Expected output to contain attribute value")
	})

	t.Run("Handle record without attributes", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{}})

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "bare message", 0)

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		assert.Contains(t, buf.String(), "bare message", "Expected output to contain the message")
	})
}

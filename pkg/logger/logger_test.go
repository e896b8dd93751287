package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestConfigureWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Configure(&buf, "info", "json")

	log.Debug("hidden")
	log.Info("visible", "invoice_id", "INV-0001")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"invoice_id":"INV-0001"`)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.Configure(&buf, "info", "text")

	ctx := logger.With(context.Background(), "request_id", "r-1")
	logger.From(ctx).Info("handled")

	assert.Contains(t, buf.String(), "request_id=r-1")
}

func TestFromOrFallsBack(t *testing.T) {
	var buf bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(&buf, nil))

	logger.FromOr(context.Background(), fallback).Info("fallback used")
	assert.Contains(t, buf.String(), "fallback used")

	buf.Reset()
	var scoped bytes.Buffer
	ctx := logger.NewContext(context.Background(), slog.New(slog.NewTextHandler(&scoped, nil)))
	logger.FromOr(ctx, fallback).Info("scoped")
	assert.Empty(t, buf.String())
	assert.Contains(t, scoped.String(), "scoped")
}

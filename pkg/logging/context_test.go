package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrohub/macrosync/pkg/logging"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Equal(t, logging.Default(), logging.FromContext(nil)) //nolint:staticcheck
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf)

	ctx := logging.WithLogger(context.Background(), &logger)
	logging.Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf)

	ctx := logging.WithLogger(context.Background(), &logger)
	ctx = logging.WithRequestID(ctx, "req-42")

	require.Equal(t, "req-42", logging.RequestID(ctx))

	logging.Ctx(ctx).Info().Msg("tagged")
	assert.Contains(t, buf.String(), "req-42")
}

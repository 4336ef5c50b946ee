package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer

	shutdown, err := Setup(&buf, "run-1")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "sweep")
	span.End()

	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name": "sweep"`)
	assert.Contains(t, out, "run-1")
}

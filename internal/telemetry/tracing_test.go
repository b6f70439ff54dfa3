package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_None(t *testing.T) {
	tr, err := Setup(context.Background(), Config{Exporter: "none"}, nil)
	require.NoError(t, err)

	_, span := tr.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestSetup_Stdout(t *testing.T) {
	var buf bytes.Buffer
	tr, err := Setup(context.Background(), Config{
		Exporter:       "stdout",
		ServiceName:    "hedgematch",
		ServiceVersion: "test",
		Writer:         &buf,
	}, nil)
	require.NoError(t, err)

	_, span := tr.Tracer.Start(context.Background(), "match")
	span.SetAttributes(RICAttr("FFIH4"))
	assert.True(t, span.IsRecording())
	span.End()

	require.NoError(t, tr.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "match"`)
	assert.Contains(t, buf.String(), "FFIH4")
}

func TestSetup_Unsupported(t *testing.T) {
	_, err := Setup(context.Background(), Config{Exporter: "jaeger"}, nil)
	assert.Error(t, err)
}

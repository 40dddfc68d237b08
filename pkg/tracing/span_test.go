package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Start(context.Background(), "run")
	require.NotEmpty(t, root.TraceID)

	_, build := Start(ctx, "build")
	build.SetAttr("files", 3)
	build.End()
	_, save := Start(ctx, "serialize")
	save.End()
	root.End()

	children := root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "build", children[0].Name)
	assert.Equal(t, root.TraceID, children[1].TraceID)
	assert.Same(t, root, FromContext(ctx))
}

func TestEndIsIdempotent(t *testing.T) {
	_, s := Start(context.Background(), "x")
	d := s.End()
	assert.Equal(t, d, s.End())
}

func TestLogWritesEverySpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, root := Start(context.Background(), "run")
	_, child := Start(ctx, "collect")
	child.SetAttr("files", 7)
	child.End()
	root.End()
	root.Log(logger)

	out := buf.String()
	assert.Contains(t, out, "span=run")
	assert.Contains(t, out, "span=collect")
	assert.Contains(t, out, "files=7")
	assert.Contains(t, out, "depth=1")
}

package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	failures int
	calls    int
	written  []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("broker unavailable")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func quickProducer(w *fakeWriter) *Producer {
	p := newProducer(w, "index.complete")
	p.retry.InitialDelay = time.Millisecond
	p.retry.MaxDelay = time.Millisecond
	return p
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := quickProducer(w)

	err := p.Publish(context.Background(), Event{
		Key:   "output",
		Value: map[string]int{"documents": 2},
	})
	require.NoError(t, err)
	require.Len(t, w.written, 1)
	assert.Equal(t, "output", string(w.written[0].Key))
	assert.JSONEq(t, `{"documents":2}`, string(w.written[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishRetriesTransientErrors(t *testing.T) {
	w := &fakeWriter{failures: 2}
	p := quickProducer(w)

	require.NoError(t, p.Publish(context.Background(), Event{Key: "k", Value: 1}))
	assert.Equal(t, 3, w.calls)
	assert.Len(t, w.written, 1)
}

func TestPublishGivesUp(t *testing.T) {
	w := &fakeWriter{failures: 10}
	p := quickProducer(w)

	err := p.Publish(context.Background(), Event{Key: "k", Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publishing to kafka")
	assert.Equal(t, 3, w.calls)
}

func TestPublishRejectsUnencodableValue(t *testing.T) {
	w := &fakeWriter{}
	p := quickProducer(w)

	err := p.Publish(context.Background(), Event{Key: "k", Value: make(chan int)})
	require.Error(t, err)
	assert.Zero(t, w.calls)
}

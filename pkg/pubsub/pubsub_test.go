package pubsub

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageChannel(t *testing.T) {
	id := uuid.MustParse("0190a2b4-0000-7000-8000-000000000001")
	assert.Equal(t, "application_messages:0190a2b4-0000-7000-8000-000000000001", MessageChannel(id))
}

func TestNew_NilClientIsNoop(t *testing.T) {
	b := New(nil)
	_, ok := b.(Noop)
	require.True(t, ok)

	assert.NoError(t, b.Publish(context.Background(), "x", "y"))
	ch, closeFn, err := b.Subscribe(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, ch)
	closeFn()
}

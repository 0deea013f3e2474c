package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youngchun/callforward/internal/logger"
)

func TestPubSub_DeliversToSubscriber(t *testing.T) {
	ps := NewPubSub(logger.NewNopLogger())
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := ps.Subscribe(ctx, "call_tasks")
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"call_sid":"CA1"}`))
	require.NoError(t, ps.Publish(ctx, "call_tasks", msg))

	select {
	case got := <-messages:
		assert.Equal(t, msg.UUID, got.UUID)
		got.Ack()
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestPubSub_DoesNotRetainMessagesWithoutSubscriber(t *testing.T) {
	ps := NewPubSub(logger.NewNopLogger())
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	early := message.NewMessage(watermill.NewUUID(), []byte(`{"call_sid":"CA1"}`))
	require.NoError(t, ps.Publish(ctx, "call_tasks", early))

	messages, err := ps.Subscribe(ctx, "call_tasks")
	require.NoError(t, err)

	select {
	case got := <-messages:
		t.Fatalf("unexpected retained message %s", got.UUID)
	case <-time.After(100 * time.Millisecond):
	}
}

package procurement

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisBroadcasterPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBroadcaster(client, slog.Default())

	sub := client.Subscribe(context.Background(), EventChannel(7))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	evt := Event{Name: EventOrderCreated, ShopID: 7, PONumber: "RO-1-2503-SAFE-001", OccurredAt: time.Now().UTC()}
	b.Broadcast(context.Background(), evt)

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		require.Equal(t, EventOrderCreated, got.Name)
		require.Equal(t, "RO-1-2503-SAFE-001", got.PONumber)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestRedisBroadcasterNeverFailsCaller(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBroadcaster(client, slog.Default())

	mr.Close()
	// Publish against a dead server must not panic or surface an error.
	b.Broadcast(context.Background(), Event{Name: EventOrderSent, ShopID: 7})
}

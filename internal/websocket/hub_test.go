package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHubTest(t *testing.T) *Hub {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, client *Client) string {
	select {
	case msg, ok := <-client.Send:
		require.True(t, ok, "send queue closed")
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return ""
	}
}

func TestHub_SendToVisitor(t *testing.T) {
	hub := setupHubTest(t)

	tab1 := NewClient(hub, nil, "visitor-a")
	tab2 := NewClient(hub, nil, "visitor-a")
	other := NewClient(hub, nil, "visitor-b")
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	require.Eventually(t, func() bool { return hub.Sessions("visitor-a") == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, hub.IsVisitorOnline("visitor-b"))

	require.NoError(t, hub.SendToVisitor("visitor-a", map[string]string{"type": "session"}))

	assert.JSONEq(t, `{"type":"session"}`, receive(t, tab1))
	assert.JSONEq(t, `{"type":"session"}`, receive(t, tab2))
	assert.Empty(t, other.Send)
}

func TestHub_Unregister(t *testing.T) {
	hub := setupHubTest(t)

	client := NewClient(hub, nil, "visitor-a")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.IsVisitorOnline("visitor-a") }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return !hub.IsVisitorOnline("visitor-a") }, time.Second, 5*time.Millisecond)

	_, ok := <-client.Send
	assert.False(t, ok)
	assert.False(t, client.Push([]byte("late")))
}

func TestClient_PushNeverBlocks(t *testing.T) {
	client := NewClient(NewHub(), nil, "visitor-a")
	for i := 0; i < cap(client.Send); i++ {
		require.True(t, client.Push([]byte("x")))
	}
	assert.False(t, client.Push([]byte("overflow")))
}

func TestHub_HandleClientMessage(t *testing.T) {
	hub := NewHub()
	var handled []string
	hub.OnMessage(func(client *Client, msg ClientMessage) {
		handled = append(handled, msg.Type)
	})
	client := NewClient(hub, nil, "visitor-a")

	hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	assert.JSONEq(t, `{"type":"pong"}`, receive(t, client))

	hub.HandleClientMessage(client, []byte(`not json`))
	hub.HandleClientMessage(client, []byte(`{"type":"refresh"}`))
	assert.Equal(t, []string{"refresh"}, handled)

	// rate limited within the same second
	for i := 0; i < maxMessagesPerSecond; i++ {
		hub.HandleClientMessage(client, []byte(`{"type":"refresh"}`))
	}
	assert.Len(t, handled, maxMessagesPerSecond-2)
}

func TestHub_Stop(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	client := NewClient(hub, nil, "visitor-a")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.IsVisitorOnline("visitor-a") }, time.Second, 5*time.Millisecond)
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, ok := <-client.Send
	assert.False(t, ok)
}

package websocket

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

func registerClient(t *testing.T, hub *Hub) *Client {
	t.Helper()

	client := NewClient(hub, nil, uuid.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	select {
	case hub.Register <- client:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not accept registration")
	}
	return client
}

func TestHub_BroadcastDeliversToSubscribers(t *testing.T) {
	hub := newTestHub(t)
	client := registerClient(t, hub)
	hub.subscribeClientToTicket(client, 7)

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventStatusChanged, TicketID: 7}))

	select {
	case event := <-client.Send:
		require.Equal(t, domain.EventStatusChanged, event.Type)
		require.EqualValues(t, 7, event.TicketID)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribed client never received the event")
	}
}

func TestHub_DropsStalledClientAndKeepsRunning(t *testing.T) {
	hub := newTestHub(t)

	stalled := registerClient(t, hub)
	hub.subscribeClientToTicket(stalled, 7)

	// Saturate the client's send buffer so the next fan-out cannot
	// hand it the event.
	for i := 0; i < cap(stalled.Send); i++ {
		stalled.Send <- domain.Event{Type: domain.EventTicketUpdated, TicketID: 7}
	}

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventStatusChanged, TicketID: 7}))

	// The stalled client must be dropped without stopping the event
	// loop: a fresh registration has to go through afterwards.
	fresh := NewClient(hub, nil, uuid.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	select {
	case hub.Register <- fresh:
	case <-time.After(2 * time.Second):
		t.Fatal("hub stopped accepting registrations after dropping a stalled client")
	}

	require.Eventually(t, func() bool {
		return !hub.IsUserConnected(stalled.UserID) &&
			hub.IsUserConnected(fresh.UserID) &&
			hub.RoomCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "stalled client was not unregistered")
}

package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
	portmocks "github.com/bnema/partage-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWatcherRequiresAuthenticatedSession(t *testing.T) {
	stream := portmocks.NewMockEventStream(t)
	watcher := NewEventWatcher(stream, nil, nil)

	err := watcher.Run(context.Background(), domain.Session{Status: domain.SessionConnected}, nil)

	require.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestEventWatcherRefetchesOnRelevantEvents(t *testing.T) {
	h := readyAs(t, "alice.testnet", domain.RoleOwner)
	session := h.session.Session()

	events := make(chan domain.ContractEvent, 2)
	events <- domain.ContractEvent{Kind: domain.EventCarAdded, Payload: json.RawMessage(`{"owner_id":"alice.testnet","car_id":"car-5"}`)}
	events <- domain.ContractEvent{Kind: domain.EventCarAdded, Payload: json.RawMessage(`{"owner_id":"zed.testnet","car_id":"car-9"}`)}
	close(events)

	stream := portmocks.NewMockEventStream(t)
	stream.EXPECT().
		Subscribe(mockAnyContext(), ports.Endpoint{URL: session.EndpointURL, ContextID: session.ContextID}).
		Return(events, nil).
		Once()

	var updates []WatchUpdate
	err := NewEventWatcher(stream, h.profiles, nil).Run(context.Background(), session, func(u WatchUpdate) {
		updates = append(updates, u)
	})

	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.NotNil(t, updates[0].Profile)
	assert.Nil(t, updates[1].Profile)
	assert.Equal(t, 2, h.node.queryCount(methodListOwnerCars))
}

func TestEventWatcherSubscribeFailure(t *testing.T) {
	h := readyAs(t, "alice.testnet", domain.RoleOwner)

	stream := portmocks.NewMockEventStream(t)
	stream.EXPECT().Subscribe(mockAnyContext(), mockAnyContext()).
		Return(nil, errors.Join(domain.ErrTransport, errors.New("dial refused"))).
		Once()

	err := NewEventWatcher(stream, h.profiles, nil).Run(context.Background(), h.session.Session(), nil)

	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestConcerns(t *testing.T) {
	profile := domain.Profile{
		Role:     domain.RoleUser,
		Bookings: []domain.Booking{{BookingID: "b-1", CarID: "car-1", UserID: "bob.testnet"}},
	}

	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{name: "names the account", payload: `{"user_id":"bob.testnet"}`, want: true},
		{name: "names the account as owner", payload: `{"owner":"bob.testnet"}`, want: true},
		{name: "car of a held booking", payload: `{"car_id":"car-1","owner_id":"alice.testnet"}`, want: true},
		{name: "held booking", payload: `{"booking_id":"b-1"}`, want: true},
		{name: "unrelated car", payload: `{"car_id":"car-2","owner_id":"alice.testnet"}`},
		{name: "unrelated booking", payload: `{"booking_id":"b-2"}`},
		{name: "empty payload", payload: `{}`},
		{name: "not json", payload: `garbage`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := domain.ContractEvent{Kind: domain.EventCarBooked, Payload: json.RawMessage(tt.payload)}
			assert.Equal(t, tt.want, concerns(event, "bob.testnet", profile))
		})
	}
}

package jsonrpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSubscribeDeliversContractEvents(t *testing.T) {
	subscribed := make(chan gjson.Result, 1)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" || r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- gjson.ParseBytes(frame)

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":"1","result":{"subscribed":["ctx-1"]}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","result":{"contextId":"ctx-1","events":[`+
			`{"kind":"CarBooked","data":{"car_id":"c1","user_id":"bob.testnet"}},`+
			`{"kind":"BookingCancelled","data":{"booking_id":"b1"}}]}}`))

		// keep the socket open until the client goes away
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := NewEventStream("token-1", nil).Subscribe(ctx, ports.Endpoint{URL: server.URL, ContextID: "ctx-1"})
	require.NoError(t, err)

	req := <-subscribed
	assert.Equal(t, "subscribe", req.Get("method").String())
	assert.Equal(t, "ctx-1", req.Get("params.contextIds.0").String())

	first := <-events
	assert.Equal(t, domain.EventCarBooked, first.Kind)
	assert.Equal(t, "ctx-1", first.ContextID)
	assert.Equal(t, "bob.testnet", gjson.GetBytes(first.Payload, "user_id").String())

	second := <-events
	assert.Equal(t, domain.EventBookingCancelled, second.Kind)

	cancel()
	for range events {
	}
}

func TestSubscribeRequiresContextID(t *testing.T) {
	_, err := NewEventStream("", nil).Subscribe(context.Background(), ports.Endpoint{URL: "http://localhost:2428"})
	assert.Error(t, err)
}

func TestSubscribeUnreachableNodeIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewEventStream("", nil).Subscribe(context.Background(), ports.Endpoint{URL: url, ContextID: "ctx-1"})
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestDecodeEventsFallsBackToSubscribedContext(t *testing.T) {
	events := decodeEvents([]byte(`{"result":{"events":[{"kind":"CarAdded"},{"data":{}}]}}`), "ctx-9")

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventCarAdded, events[0].Kind)
	assert.Equal(t, "ctx-9", events[0].ContextID)
	assert.JSONEq(t, "null", string(events[0].Payload))
}

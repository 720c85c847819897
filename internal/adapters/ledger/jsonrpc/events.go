package jsonrpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	wsPath            = "/ws"
	handshakeTimeout  = 10 * time.Second
	eventBufferSize   = 32
	methodSubscribe   = "subscribe"
	subscribeAckField = "result.subscribed"
)

// EventStream subscribes to contract events of one application context.
type EventStream struct {
	dialer *websocket.Dialer
	header http.Header
	log    *logrus.Entry
}

var _ ports.EventStream = (*EventStream)(nil)

func NewEventStream(accessToken string, log *logrus.Entry) *EventStream {
	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}

	return &EventStream{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header: header,
		log:    logging.OrDiscard(log),
	}
}

type subscribeRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  subscribeParams `json:"params"`
}

type subscribeParams struct {
	ContextIDs []string `json:"contextIds"`
}

// Subscribe returns a channel that is closed when ctx ends or the socket
// drops. Frames that are not events are skipped.
func (s *EventStream) Subscribe(ctx context.Context, endpoint ports.Endpoint) (<-chan domain.ContractEvent, error) {
	if endpoint.ContextID == "" {
		return nil, fmt.Errorf("subscribe: context id is required")
	}

	wsURL, err := wsEndpoint(endpoint.URL)
	if err != nil {
		return nil, err
	}

	conn, resp, err := s.dialer.DialContext(ctx, wsURL, s.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", domain.ErrTransport, wsURL, err)
	}

	req := subscribeRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  methodSubscribe,
		Params:  subscribeParams{ContextIDs: []string{endpoint.ContextID}},
	}
	if err := conn.WriteJSON(req); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"endpoint": endpoint.URL, "context_id": endpoint.ContextID})
	events := make(chan domain.ContractEvent, eventBufferSize)

	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { _ = conn.Close() }) }

	go func() {
		<-ctx.Done()
		closeConn()
	}()

	go func() {
		defer close(events)
		defer closeConn()

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					log.WithError(err).Warn("event stream closed")
				}
				return
			}

			for _, event := range decodeEvents(frame, endpoint.ContextID) {
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// decodeEvents accepts frames shaped as
// {"result":{"contextId":..,"events":[{"kind":..,"data":..}]}}.
func decodeEvents(frame []byte, fallbackContextID string) []domain.ContractEvent {
	if !gjson.ValidBytes(frame) {
		return nil
	}

	parsed := gjson.ParseBytes(frame)
	if parsed.Get(subscribeAckField).Exists() {
		return nil
	}

	contextID := parsed.Get("result.contextId").String()
	if contextID == "" {
		contextID = fallbackContextID
	}

	var events []domain.ContractEvent
	parsed.Get("result.events").ForEach(func(_, item gjson.Result) bool {
		kind := item.Get("kind").String()
		if kind == "" {
			return true
		}

		payload := []byte("null")
		if data := item.Get("data"); data.Exists() {
			payload = []byte(data.Raw)
		}

		events = append(events, domain.ContractEvent{
			Kind:      domain.EventKind(kind),
			ContextID: contextID,
			Payload:   payload,
		})
		return true
	})

	return events
}

func wsEndpoint(raw string) (string, error) {
	u, err := parseNodeURL(raw)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + wsPath

	return u.String(), nil
}

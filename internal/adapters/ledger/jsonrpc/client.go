// Package jsonrpc talks to the contract runtime node over JSON-RPC 2.0 for
// calls and over a WebSocket for contract events.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	rpcPath        = "/jsonrpc"
	defaultTimeout = 30 * time.Second

	methodHealth = "health"
	methodQuery  = "query"
	methodMutate = "mutate"

	// FunctionCallErrorType marks an error raised by the contract itself.
	FunctionCallErrorType = "FunctionCallError"
)

type Config struct {
	HTTPClient *http.Client
	// RequestsPerSecond <= 0 disables client-side limiting.
	RequestsPerSecond float64
	Burst             int
	Log               *logrus.Entry
}

type Dialer struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Entry
}

var _ ports.LedgerDialer = (*Dialer)(nil)

func NewDialer(cfg Config) *Dialer {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Dialer{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		log:        logging.OrDiscard(cfg.Log),
	}
}

// Dial validates the endpoint and binds a client to it. It does not contact
// the node; use Ping for that.
func (d *Dialer) Dial(ctx context.Context, endpoint ports.Endpoint) (ports.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rpcURL, err := rpcEndpoint(endpoint.URL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcURL:     rpcURL,
		endpoint:   endpoint,
		httpClient: d.httpClient,
		limiter:    d.limiter,
		log:        d.log.WithField("endpoint", endpoint.URL),
	}, nil
}

// Client is bound to one node and one application context.
type Client struct {
	rpcURL     string
	endpoint   ports.Endpoint
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Entry
}

var _ ports.Ledger = (*Client)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type callParams struct {
	ApplicationID string          `json:"applicationId,omitempty"`
	ContextID     string          `json:"contextId,omitempty"`
	ContractID    string          `json:"contractId"`
	Method        string          `json:"method"`
	ArgsJSON      json.RawMessage `json:"argsJson"`
	SignerID      string          `json:"signerId,omitempty"`
	Gas           uint64          `json:"gas,omitempty"`
	Deposit       *domain.Amount  `json:"deposit,omitempty"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int64
	Message string
	Type    string
	Reason  string
}

func (e *RPCError) Error() string {
	switch {
	case e.Reason != "" && e.Type != "":
		return fmt.Sprintf("%s: %s", e.Type, e.Reason)
	case e.Reason != "":
		return e.Reason
	default:
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
}

// ContractFailure reports whether the contract itself rejected the call.
func (e *RPCError) ContractFailure() bool {
	return e.Type == FunctionCallErrorType
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, methodHealth, "", map[string]string{})
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.endpoint.URL, err)
	}
	return nil
}

func (c *Client) Query(ctx context.Context, req ports.QueryRequest) (json.RawMessage, error) {
	params := c.params(req.ContractID, req.Method, req.Args)

	result, err := c.call(ctx, methodQuery, req.AccessToken, params)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", req.Method, err)
	}

	return rawOrNull(result.Get("output")), nil
}

// Mutate reports a contract rejection through MutateResult. Only failures
// that leave the outcome unknown come back as errors.
func (c *Client) Mutate(ctx context.Context, req ports.MutateRequest) (ports.MutateResult, error) {
	params := c.params(req.ContractID, req.Method, req.Args)
	params.SignerID = string(req.SignerID)
	params.Gas = req.Gas
	if !req.Deposit.IsZero() {
		deposit := req.Deposit
		params.Deposit = &deposit
	}

	result, err := c.call(ctx, methodMutate, req.AccessToken, params)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return ports.MutateResult{Success: false, Reason: rpcErr.Error()}, nil
		}
		return ports.MutateResult{}, fmt.Errorf("mutate %s: %w", req.Method, err)
	}

	return ports.MutateResult{
		Success: true,
		TxHash:  result.Get("txHash").String(),
		Output:  rawOrNull(result.Get("output")),
	}, nil
}

func (c *Client) params(contractID, method string, args json.RawMessage) callParams {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	return callParams{
		ApplicationID: c.endpoint.ApplicationID,
		ContextID:     c.endpoint.ContextID,
		ContractID:    contractID,
		Method:        method,
		ArgsJSON:      args,
	}
}

func (c *Client) call(ctx context.Context, method, accessToken string, params any) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, fmt.Errorf("rate limit: %w", err)
	}

	id := uuid.NewString()
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	log := c.log.WithFields(logrus.Fields{"rpc_method": method, "request_id": id})
	log.Debug("sending rpc request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: execute request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return gjson.Result{}, fmt.Errorf("%w: node answered %s", domain.ErrTransport, resp.Status)
	}
	if !gjson.ValidBytes(respBody) {
		if resp.StatusCode >= http.StatusBadRequest {
			return gjson.Result{}, fmt.Errorf("node answered %s", resp.Status)
		}
		return gjson.Result{}, errors.New("decode response: invalid json")
	}

	parsed := gjson.ParseBytes(respBody)
	if rpcErr := parsed.Get("error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		err := decodeRPCError(rpcErr)
		log.WithError(err).Debug("rpc request rejected")
		return gjson.Result{}, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return gjson.Result{}, fmt.Errorf("node answered %s", resp.Status)
	}
	if got := parsed.Get("id").String(); got != id {
		return gjson.Result{}, fmt.Errorf("response id %q does not match request id %q", got, id)
	}

	return parsed.Get("result"), nil
}

// decodeRPCError reads both the flat {type, reason} shape and the nested
// {type, data: {reason}} shape some node versions emit.
func decodeRPCError(node gjson.Result) *RPCError {
	rpcErr := &RPCError{
		Code:    node.Get("code").Int(),
		Message: node.Get("message").String(),
		Type:    node.Get("data.type").String(),
	}

	for _, path := range []string{"data.reason", "data.data.reason", "data.data", "data.message"} {
		if v := node.Get(path); v.Type == gjson.String && v.String() != "" {
			rpcErr.Reason = v.String()
			break
		}
	}
	if rpcErr.Reason == "" && rpcErr.Type != "" {
		rpcErr.Reason = rpcErr.Message
	}

	return rpcErr
}

func rawOrNull(v gjson.Result) json.RawMessage {
	if !v.Exists() {
		return json.RawMessage("null")
	}
	return json.RawMessage(v.Raw)
}

func rpcEndpoint(raw string) (string, error) {
	u, err := parseNodeURL(raw)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimRight(u.Path, "/") + rpcPath

	return u.String(), nil
}

func parseNodeURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse node url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("node url %q has no host", raw)
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("node url %q: unsupported scheme %q", raw, u.Scheme)
	}

	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

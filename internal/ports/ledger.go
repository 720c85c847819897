package ports

import (
	"context"
	"encoding/json"

	"github.com/bnema/partage-cli/internal/domain"
)

type Endpoint struct {
	URL           string
	ApplicationID string
	ContextID     string
}

type QueryRequest struct {
	ContractID  string
	Method      string
	Args        json.RawMessage
	AccessToken string
}

type MutateRequest struct {
	ContractID  string
	Method      string
	Args        json.RawMessage
	SignerID    domain.AccountID
	AccessToken string
	Gas         uint64
	Deposit     domain.Amount
}

// MutateResult carries the contract's verdict. A transport failure is
// reported as an error instead, since the outcome is then unknown.
type MutateResult struct {
	Success bool
	Reason  string
	TxHash  string
	Output  json.RawMessage
}

// Ledger exposes the two call kinds of the contract runtime.
type Ledger interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, req QueryRequest) (json.RawMessage, error)
	Mutate(ctx context.Context, req MutateRequest) (MutateResult, error)
}

type LedgerDialer interface {
	Dial(ctx context.Context, endpoint Endpoint) (Ledger, error)
}

type EventStream interface {
	Subscribe(ctx context.Context, endpoint Endpoint) (<-chan domain.ContractEvent, error)
}

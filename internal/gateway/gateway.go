// Package gateway is the boundary to the ledger network: balance queries and
// payment submission.
package gateway

import (
	"context"

	"github.com/punchamoorthee/stayledger/internal/domain"
)

// MaxMemoBytes is the ledger's text memo limit.
const MaxMemoBytes = 28

// Gateway is what the booking orchestrator needs from the ledger.
// SendPayment returns an error only when the outcome is unknown to the caller
// (transport failure); a rejection by the network is a result with Success false.
type Gateway interface {
	Balance(ctx context.Context, address string) (domain.Balance, error)
	SendPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error)
}

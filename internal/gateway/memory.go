package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/money"
)

// Result codes mirror the ledger's operation failure codes.
const (
	ReasonMalformed     = "op_malformed"
	ReasonUnderfunded   = "op_underfunded"
	ReasonNoSource      = "op_no_source_account"
	ReasonNoDestination = "op_no_destination"
	ReasonMemoTooLong   = "tx_memo_too_long"
	ReasonBadPrecision  = "op_invalid_amount_precision"
)

// Payment is a settled operation recorded by MemoryLedger.
type Payment struct {
	Hash     string
	From     string
	To       string
	Amount   decimal.Decimal
	Asset    string
	Memo     string
	LedgerAt time.Time
}

// MemoryLedger is an in-process stand-in for the ledger network, used for
// development, the benchmark and tests. Balances are in the native asset.
type MemoryLedger struct {
	mu        sync.Mutex
	accounts  map[string]decimal.Decimal
	payments  []Payment
	sequence  int64
	friendbot decimal.Decimal
	now       func() time.Time
}

type LedgerOption func(*MemoryLedger)

// WithFriendbot opens unknown accounts on first use with the given balance,
// the way a test network's faucet does.
func WithFriendbot(amount decimal.Decimal) LedgerOption {
	return func(l *MemoryLedger) { l.friendbot = amount }
}

func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *MemoryLedger) { l.now = now }
}

func NewMemoryLedger(opts ...LedgerOption) *MemoryLedger {
	l := &MemoryLedger{
		accounts: make(map[string]decimal.Decimal),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fund credits address, opening the account if needed.
func (l *MemoryLedger) Fund(address string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = l.accounts[address].Add(amount)
}

// Payments returns every settled payment in submission order.
func (l *MemoryLedger) Payments() []Payment {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Payment, len(l.payments))
	copy(out, l.payments)
	return out
}

// account must be called with l.mu held.
func (l *MemoryLedger) account(address string) (decimal.Decimal, bool) {
	bal, ok := l.accounts[address]
	if !ok && l.friendbot.IsPositive() && address != "" {
		bal = l.friendbot
		l.accounts[address] = bal
		ok = true
	}
	return bal, ok
}

func (l *MemoryLedger) Balance(_ context.Context, address string) (domain.Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.account(address)
	if !ok {
		return domain.Balance{}, fmt.Errorf("account %s not found", address)
	}
	return domain.Balance{Address: address, Available: bal, Assets: []domain.AssetBalance{}}, nil
}

func (l *MemoryLedger) SendPayment(_ context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	if len(req.Memo) > MaxMemoBytes {
		return domain.PaymentResult{Reason: ReasonMemoTooLong}, nil
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return domain.PaymentResult{Reason: ReasonMalformed}, nil
	}
	if money.ExceedsLedgerPrecision(amount) {
		return domain.PaymentResult{Reason: ReasonBadPrecision}, nil
	}
	if req.From == req.To {
		return domain.PaymentResult{Reason: ReasonMalformed}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.account(req.From)
	if !ok {
		return domain.PaymentResult{Reason: ReasonNoSource}, nil
	}
	to, ok := l.account(req.To)
	if !ok {
		return domain.PaymentResult{Reason: ReasonNoDestination}, nil
	}
	if from.LessThan(amount) {
		return domain.PaymentResult{Reason: ReasonUnderfunded}, nil
	}

	l.sequence++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s|%s", l.sequence, req.From, req.To, amount.StringFixed(money.LedgerPrecision), req.Memo)))
	hash := hex.EncodeToString(sum[:])

	l.accounts[req.From] = from.Sub(amount)
	l.accounts[req.To] = to.Add(amount)

	asset := req.Asset
	if asset == "" {
		asset = domain.NativeAsset
	}
	l.payments = append(l.payments, Payment{
		Hash:     hash,
		From:     req.From,
		To:       req.To,
		Amount:   amount,
		Asset:    asset,
		Memo:     req.Memo,
		LedgerAt: l.now(),
	})
	return domain.PaymentResult{Success: true, Hash: hash}, nil
}

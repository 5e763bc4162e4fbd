package gateway

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/stayledger/internal/domain"
)

func TestMemoryLedgerPayment(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Fund("GA", decimal.NewFromInt(500))
	l.Fund("GB", decimal.Zero)

	res, err := l.SendPayment(ctx, domain.PaymentRequest{From: "GA", To: "GB", Amount: "459.0000000", Memo: "BK1:250601-250604"})
	if err != nil {
		t.Fatalf("SendPayment: %v", err)
	}
	if !res.Success || len(res.Hash) != 64 {
		t.Fatalf("result: %+v", res)
	}

	a, _ := l.Balance(ctx, "GA")
	b, _ := l.Balance(ctx, "GB")
	if !a.Available.Equal(decimal.NewFromInt(41)) {
		t.Errorf("GA balance: got %s, want 41", a.Available)
	}
	if !b.Available.Equal(decimal.NewFromInt(459)) {
		t.Errorf("GB balance: got %s, want 459", b.Available)
	}
	if got := l.Payments(); len(got) != 1 || got[0].Hash != res.Hash || got[0].Asset != domain.NativeAsset {
		t.Errorf("payments: %+v", got)
	}
}

func TestMemoryLedgerRejections(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Fund("GA", decimal.NewFromInt(100))
	l.Fund("GB", decimal.Zero)

	cases := []struct {
		name string
		req  domain.PaymentRequest
		want string
	}{
		{"memo too long", domain.PaymentRequest{From: "GA", To: "GB", Amount: "1", Memo: "BK0123456789abcdef:250601-250604"}, ReasonMemoTooLong},
		{"excess precision", domain.PaymentRequest{From: "GA", To: "GB", Amount: "1.00000001"}, ReasonBadPrecision},
		{"not a number", domain.PaymentRequest{From: "GA", To: "GB", Amount: "abc"}, ReasonMalformed},
		{"zero amount", domain.PaymentRequest{From: "GA", To: "GB", Amount: "0"}, ReasonMalformed},
		{"self payment", domain.PaymentRequest{From: "GA", To: "GA", Amount: "1"}, ReasonMalformed},
		{"unknown source", domain.PaymentRequest{From: "GX", To: "GB", Amount: "1"}, ReasonNoSource},
		{"unknown destination", domain.PaymentRequest{From: "GA", To: "GX", Amount: "1"}, ReasonNoDestination},
		{"underfunded", domain.PaymentRequest{From: "GA", To: "GB", Amount: "100.0000001"}, ReasonUnderfunded},
	}
	for _, tc := range cases {
		res, err := l.SendPayment(ctx, tc.req)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if res.Success || res.Reason != tc.want {
			t.Errorf("%s: got %+v, want reason %s", tc.name, res, tc.want)
		}
	}
	if n := len(l.Payments()); n != 0 {
		t.Errorf("rejected payments were recorded: %d", n)
	}
	a, _ := l.Balance(ctx, "GA")
	if !a.Available.Equal(decimal.NewFromInt(100)) {
		t.Errorf("GA balance changed: %s", a.Available)
	}
}

func TestMemoryLedgerFriendbot(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(WithFriendbot(decimal.NewFromInt(10000)))
	bal, err := l.Balance(ctx, "GNEW")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !bal.Available.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("friendbot balance: got %s", bal.Available)
	}

	plain := NewMemoryLedger()
	if _, err := plain.Balance(ctx, "GNEW"); err == nil {
		t.Error("expected unknown account error without friendbot")
	}
}

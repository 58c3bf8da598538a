package wallet

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("nil error classified as failure")
	}
	if err := Classify(context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Fatalf("deadline classified as %v", err)
	}
	if err := Classify(errors.New("boom")); !errors.Is(err, ErrExternal) {
		t.Fatalf("generic error classified as %v", err)
	}
	// Already-classified errors pass through.
	if err := Classify(ErrTimeout); !errors.Is(err, ErrTimeout) {
		t.Fatalf("ErrTimeout reclassified as %v", err)
	}
}

func TestDemoConnectAndActive(t *testing.T) {
	ctx := context.Background()
	d := NewDemo(0)

	if _, ok, err := d.Active(ctx); err != nil || ok {
		t.Fatalf("fresh wallet active = %v, %v", ok, err)
	}
	acct, err := d.Connect(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if acct.Address != DemoAddress {
		t.Fatalf("address = %s", acct.Address)
	}
	if _, ok, _ := d.Active(ctx); !ok {
		t.Fatal("not active after connect")
	}
	if err := d.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if _, ok, _ := d.Active(ctx); ok {
		t.Fatal("still active after disconnect")
	}
}

func TestDemoSubmitSequence(t *testing.T) {
	ctx := context.Background()
	d := NewDemo(0)
	tx1, err := d.SubmitStrategyPayload(ctx, MintPayload("HighestAPY", "Medium", "50.0", 0, "200.0"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	tx2, _ := d.SubmitStrategyPayload(ctx, Payload{})
	if tx1 == tx2 {
		t.Fatalf("transaction ids not unique: %s", tx1)
	}
}

func TestDemoFailureModes(t *testing.T) {
	ctx := context.Background()
	d := NewDemo(0)
	d.FailSubmits = true
	if _, err := d.SubmitStrategyPayload(ctx, Payload{}); !errors.Is(err, ErrExternal) {
		t.Fatalf("submit error = %v", err)
	}
	d.FailQueries = true
	if _, err := d.QueryChainState(ctx, BalancePayload(DemoAddress)); !errors.Is(err, ErrExternal) {
		t.Fatalf("query error = %v", err)
	}
}

func TestDemoLatencyRespectsDeadline(t *testing.T) {
	d := NewDemo(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := d.Connect(ctx); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

package bank

import (
	"context"
	"testing"

	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type stubDice struct {
	floats []float64
}

func (d *stubDice) Float64() float64 {
	if len(d.floats) == 0 {
		return 0.5
	}
	v := d.floats[0]
	d.floats = d.floats[1:]
	return v
}

func (d *stubDice) Int63n(n int64) int64 { return 0 }

type fakeActors struct {
	actor      *models.Actor
	updateErrs []error
}

func (f *fakeActors) GetByID(_ context.Context, id string) (*models.Actor, error) {
	if f.actor == nil || f.actor.ID != id {
		return nil, repositories.ErrNotFound
	}
	cp := *f.actor
	return &cp, nil
}

func (f *fakeActors) Update(_ context.Context, actor *models.Actor) error {
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *actor
	f.actor = &cp
	return nil
}

func newFake() *fakeActors {
	actor := models.NewActor("saver", "saver@example.com")
	actor.ID = "actor-1"
	actor.MoneyCash = 1000_00
	actor.MoneyBank = 200_00
	return &fakeActors{actor: actor}
}

func newTestEngine(f *fakeActors, dice *stubDice) *Engine {
	return NewEngine(f, dice, nil, 2000, 4000)
}

func TestDeposit(t *testing.T) {
	f := newFake()
	b, err := newTestEngine(f, &stubDice{}).Deposit(context.Background(), "actor-1", 300_00)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if b.Cash != 700_00 || b.Bank != 500_00 {
		t.Errorf("balance = %d/%d, want 700_00/500_00", b.Cash, b.Bank)
	}
	if b.Total != 1200_00 {
		t.Errorf("total = %d, want unchanged 1200_00", b.Total)
	}
}

func TestWithdraw(t *testing.T) {
	f := newFake()
	b, err := newTestEngine(f, &stubDice{}).Withdraw(context.Background(), "actor-1", 150_00)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if b.Cash != 1150_00 || b.Bank != 50_00 {
		t.Errorf("balance = %d/%d, want 1150_00/50_00", b.Cash, b.Bank)
	}
}

func TestTransferRejections(t *testing.T) {
	f := newFake()
	e := newTestEngine(f, &stubDice{})

	if _, err := e.Deposit(context.Background(), "actor-1", 0); !game.IsPrecondition(err) {
		t.Errorf("zero deposit: got %v", err)
	}
	if _, err := e.Deposit(context.Background(), "actor-1", 5000_00); !game.IsPrecondition(err) {
		t.Errorf("overdrawn deposit: got %v", err)
	}
	if _, err := e.Withdraw(context.Background(), "actor-1", 5000_00); !game.IsPrecondition(err) {
		t.Errorf("overdrawn withdraw: got %v", err)
	}
	if _, err := e.Deposit(context.Background(), "ghost", 10_00); !game.IsNotFound(err) {
		t.Errorf("unknown actor: got %v", err)
	}
	if f.actor.MoneyCash != 1000_00 || f.actor.MoneyBank != 200_00 {
		t.Error("balances moved on rejected transfers")
	}
}

func TestLaunder(t *testing.T) {
	f := newFake()
	// Roll 0.5 => fee bps 2000 + 0.5*2000 = 3000 => 30%.
	res, err := newTestEngine(f, &stubDice{floats: []float64{0.5}}).Launder(context.Background(), "actor-1", 500_00)
	if err != nil {
		t.Fatalf("Launder: %v", err)
	}
	if res.Fee != 150_00 || res.Laundered != 350_00 {
		t.Errorf("fee/laundered = %d/%d, want 150_00/350_00", res.Fee, res.Laundered)
	}
	if res.FeePercent != 30 {
		t.Errorf("fee percent = %d, want 30", res.FeePercent)
	}
	if f.actor.MoneyCash != 500_00 {
		t.Errorf("cash = %d, want 500_00", f.actor.MoneyCash)
	}
	if f.actor.MoneyBank != 550_00 {
		t.Errorf("bank = %d, want 550_00", f.actor.MoneyBank)
	}
}

func TestLaunderFeeBounds(t *testing.T) {
	// Min roll keeps the cut at 20%, max roll just under 40%.
	f := newFake()
	res, err := newTestEngine(f, &stubDice{floats: []float64{0.0}}).Launder(context.Background(), "actor-1", 100_00)
	if err != nil {
		t.Fatalf("Launder: %v", err)
	}
	if res.Fee != 20_00 {
		t.Errorf("min fee = %d, want 20_00", res.Fee)
	}

	f = newFake()
	res, err = newTestEngine(f, &stubDice{floats: []float64{0.9999}}).Launder(context.Background(), "actor-1", 100_00)
	if err != nil {
		t.Fatalf("Launder: %v", err)
	}
	if res.Fee < 20_00 || res.Fee >= 40_00 {
		t.Errorf("fee = %d, want within [20_00, 40_00)", res.Fee)
	}
}

func TestLaunderRetriesOnConflict(t *testing.T) {
	f := newFake()
	f.updateErrs = []error{repositories.ErrConflict, nil}

	if _, err := newTestEngine(f, &stubDice{}).Launder(context.Background(), "actor-1", 100_00); err != nil {
		t.Fatalf("Launder after retry: %v", err)
	}
	if f.actor.MoneyCash != 900_00 {
		t.Errorf("cash = %d, want a single 100_00 deduction", f.actor.MoneyCash)
	}
}

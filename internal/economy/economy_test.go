package economy

import (
	"math/rand"
	"testing"
)

func TestTrySpend_ExactBalance(t *testing.T) {
	e := New(100)
	if !e.TrySpend(100) {
		t.Fatalf("spending the exact balance failed")
	}
	if e.Money() != 0 {
		t.Fatalf("money=%d want=0", e.Money())
	}
	if e.TrySpend(1) {
		t.Fatalf("overspend succeeded")
	}
}

func TestTrySpend_RejectsNegative(t *testing.T) {
	e := New(10)
	if e.TrySpend(-5) {
		t.Fatalf("negative spend succeeded")
	}
	e.Add(-5)
	if e.Money() != 10 {
		t.Fatalf("money=%d want=10", e.Money())
	}
}

func TestNew_ClampsNegativeStart(t *testing.T) {
	if got := New(-50).Money(); got != 0 {
		t.Fatalf("money=%d want=0", got)
	}
}

func TestEconomy_MoneyChangeEvents(t *testing.T) {
	e := New(20)
	var seen []int64
	e.OnMoneyChange.Subscribe(func(m int64) { seen = append(seen, m) })

	e.Add(5)
	e.TrySpend(30) // fails, no event
	e.TrySpend(25)

	if len(seen) != 2 || seen[0] != 25 || seen[1] != 0 {
		t.Fatalf("events=%v want=[25 0]", seen)
	}
}

func TestEconomy_RandomSequencesStayNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := New(0)
	for i := 0; i < 10000; i++ {
		amount := rng.Int63n(200)
		if rng.Intn(2) == 0 {
			e.Add(amount)
			continue
		}
		before := e.Money()
		ok := e.TrySpend(amount)
		if ok != (before >= amount) {
			t.Fatalf("step %d: TrySpend(%d) with balance %d returned %v", i, amount, before, ok)
		}
		if e.Money() < 0 {
			t.Fatalf("step %d: balance went negative: %d", i, e.Money())
		}
	}
}

package ringbuf

import (
	"sync"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

func TestRingBasicPushPop(t *testing.T) {
	r := New(4)

	if !r.Push(model.Tick{Symbol: "BTC", Price: 100}) {
		t.Fatal("push BTC should succeed")
	}
	if !r.Push(model.Tick{Symbol: "ETH", Price: 200}) {
		t.Fatal("push ETH should succeed")
	}
	if r.Len() != 2 {
		t.Fatalf("expected len=2, got %d", r.Len())
	}

	got, ok := r.Pop()
	if !ok || got.Symbol != "BTC" {
		t.Fatalf("expected BTC, got %v ok=%v", got.Symbol, ok)
	}
	got, ok = r.Pop()
	if !ok || got.Symbol != "ETH" {
		t.Fatalf("expected ETH, got %v ok=%v", got.Symbol, ok)
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("pop from empty should return false")
	}
}

func TestRingOverflow(t *testing.T) {
	r := New(2)

	r.Push(model.Tick{Symbol: "1"})
	r.Push(model.Tick{Symbol: "2"})

	if r.Push(model.Tick{Symbol: "3"}) {
		t.Fatal("push to full buffer should return false")
	}
	if r.Overflow() != 1 {
		t.Fatalf("expected overflow=1, got %d", r.Overflow())
	}
}

func TestRingWraparound(t *testing.T) {
	r := New(4)

	for round := 0; round < 5; round++ {
		for i := 0; i < 4; i++ {
			if !r.Push(model.Tick{Symbol: "X", Price: float64(round*10 + i)}) {
				t.Fatalf("round %d push %d failed", round, i)
			}
		}
		for i := 0; i < 4; i++ {
			tick, ok := r.Pop()
			if !ok {
				t.Fatalf("round %d pop %d failed", round, i)
			}
			if tick.Price != float64(round*10+i) {
				t.Fatalf("round %d pop %d: expected price=%d, got %f", round, i, round*10+i, tick.Price)
			}
		}
	}
}

func TestRingDrain(t *testing.T) {
	r := New(8)
	for i := 0; i < 5; i++ {
		r.Push(model.Tick{Price: float64(i)})
	}

	ticks := r.Drain()
	if len(ticks) != 5 {
		t.Fatalf("drained %d, want 5", len(ticks))
	}
	for i, tick := range ticks {
		if tick.Price != float64(i) {
			t.Errorf("tick %d price = %f, want %d", i, tick.Price, i)
		}
	}
	if r.Len() != 0 {
		t.Errorf("len after drain = %d, want 0", r.Len())
	}
	if r.Drain() != nil {
		t.Error("drain of empty ring should be nil")
	}
}

func TestRingSPSCConcurrent(t *testing.T) {
	const count = 100_000
	r := New(1024)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < count; i++ {
			for !r.Push(model.Tick{Price: float64(i)}) {
				// spin, test only
			}
		}
	}()

	go func() {
		defer wg.Done()
		next := 0.0
		for next < count {
			tick, ok := r.Pop()
			if !ok {
				continue
			}
			if tick.Price != next {
				t.Errorf("out of order: got %f, want %f", tick.Price, next)
				return
			}
			next++
		}
	}()

	wg.Wait()
	if r.Overflow() == 0 && r.Len() != 0 {
		t.Errorf("ring not drained: len=%d", r.Len())
	}
}

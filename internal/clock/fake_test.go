package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func TestFakeNowAndAdvance(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(epoch.Add(90 * time.Second)) {
		t.Fatalf("Now() after Advance = %v", got)
	}
}

func TestFakeTickerFires(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	select {
	case <-ticker.C:
		t.Fatal("ticker fired before Advance")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-ticker.C:
		if !got.Equal(epoch.Add(time.Second)) {
			t.Fatalf("tick time = %v", got)
		}
	default:
		t.Fatal("ticker did not fire after Advance")
	}
}

func TestFakeTickerDropsWhenFull(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	c.Advance(10 * time.Second)
	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("expected overflow ticks to be dropped")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	if c.ActiveTickers() != 1 {
		t.Fatalf("ActiveTickers = %d, want 1", c.ActiveTickers())
	}

	ticker.Stop()
	ticker.Stop()
	if c.ActiveTickers() != 0 {
		t.Fatalf("ActiveTickers after Stop = %d, want 0", c.ActiveTickers())
	}

	c.Advance(5 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeSetDoesNotTick(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	c.Set(epoch.Add(time.Hour))
	select {
	case <-ticker.C:
		t.Fatal("Set should not fire tickers")
	default:
	}
	if !c.Now().Equal(epoch.Add(time.Hour)) {
		t.Fatalf("Now() = %v", c.Now())
	}
}

func TestNewTickerPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Fake(epoch).NewTicker(0)
}

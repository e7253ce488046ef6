package events

import (
	"testing"

	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

func TestFundManagerChanged(t *testing.T) {
	bus := New()

	var got []FundManagerChanged
	unsubscribe, err := bus.OnFundManagerChanged(func(ev FundManagerChanged) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatal(err)
	}

	ev := FundManagerChanged{Old: types.Address{0x01}, New: types.Address{0x02}}
	bus.PublishFundManagerChanged(ev)

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	if got[0] != ev {
		t.Errorf("event = %+v, want %+v", got[0], ev)
	}

	unsubscribe()
	bus.PublishFundManagerChanged(ev)
	if len(got) != 1 {
		t.Errorf("handler called after unsubscribe")
	}
}

func TestSubscribe_NotAFunc(t *testing.T) {
	bus := New()
	if err := bus.Subscribe("topic", 42); err == nil {
		t.Error("Subscribe with a non-func handler should fail")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := New()
	var a, b int
	bus.OnFundManagerChanged(func(FundManagerChanged) { a++ })
	bus.OnFundManagerChanged(func(FundManagerChanged) { b++ })

	bus.PublishFundManagerChanged(FundManagerChanged{})
	if a != 1 || b != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", a, b)
	}
}

package broadcast

import (
	"context"
	"errors"
	"testing"
)

type fakeSender struct {
	delivered []string
	failFor   map[string]bool
}

func (f *fakeSender) Send(destination, text string) error {
	if f.failFor[destination] {
		return errors.New("delivery refused")
	}
	f.delivered = append(f.delivered, destination)
	return nil
}

func TestSendAllSkipsFailedDestinations(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"-200": true}}
	b := New(sender)

	sent := b.SendAll(context.Background(), []string{"-100", "-200", "@channel"}, "hello")

	if sent != 2 {
		t.Fatalf("SendAll() = %d, want 2", sent)
	}
	if len(sender.delivered) != 2 || sender.delivered[0] != "-100" || sender.delivered[1] != "@channel" {
		t.Errorf("delivered = %v, want the non-failing destinations in order", sender.delivered)
	}
}

func TestSendAllCancelledContext(t *testing.T) {
	sender := &fakeSender{}
	b := New(sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First limiter wait may still pass on a fresh limiter, but the
	// cancelled context must stop the fan-out promptly.
	sent := b.SendAll(ctx, []string{"1", "2", "3", "4"}, "hello")
	if sent > 1 {
		t.Errorf("SendAll() sent %d messages on a cancelled context", sent)
	}
}

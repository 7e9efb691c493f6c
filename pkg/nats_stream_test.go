package pkg

import (
	"context"
	"testing"
)

func TestNATSStreamSubscribeRequiresConsumerName(t *testing.T) {
	s := &NATSStream{topic: "lounge.tickets"}

	err := s.SubscribeStream(context.Background(), func(ctx context.Context, msg []byte) error {
		return nil
	})
	if err == nil {
		t.Fatal("SubscribeStream() without consumer name returned nil error")
	}
	if len(s.consuming) != 0 {
		t.Errorf("consuming = %d, want 0", len(s.consuming))
	}
}

package billing

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestConsumerCheckAfterDeliveryChannelCloses(t *testing.T) {
	tests := []struct {
		name    string
		stop    func(cancel context.CancelFunc, msgs chan amqp.Delivery)
		wantErr error
	}{
		{
			name:    "broker closes channel",
			stop:    func(_ context.CancelFunc, msgs chan amqp.Delivery) { close(msgs) },
			wantErr: ErrConsumerStopped,
		},
		{
			name:    "shutdown",
			stop:    func(cancel context.CancelFunc, _ chan amqp.Delivery) { cancel() },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Consumer{cfg: ConsumerConfig{Queue: DefaultQueue}, handler: NewHandler(&fakeCanceller{})}
			if err := c.Check(context.Background()); err != nil {
				t.Fatalf("expected running consumer to be healthy, got %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			msgs := make(chan amqp.Delivery)

			done := make(chan struct{})
			go func() {
				c.consume(ctx, msgs)
				close(done)
			}()
			tt.stop(cancel, msgs)
			<-done

			if err := c.Check(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

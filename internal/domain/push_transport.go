package domain

import "context"

//go:generate mockgen -source=push_transport.go -destination=push_transport_mock.go -package=domain

type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// PushTransport delivers one push message to one device token.
type PushTransport interface {
	Send(ctx context.Context, msg PushMessage) error
}

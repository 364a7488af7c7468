package nats

import (
	"context"

	"github.com/nats-io/nats.go"
)

// This is the subset of the nats.go API that we use, defined as mockable API

type natsAPI interface {
	Connect(url string, options ...nats.Option) (natsConn, error)
}

type natsConn interface {
	SubscribeSync(subject string) (natsSubscription, error)
	Close()
}

type natsSubscription interface {
	NextMsgWithContext(ctx context.Context) (*nats.Msg, error)
	Unsubscribe() error
}

type realNATSAPI struct{}

func (realNATSAPI) Connect(url string, options ...nats.Option) (natsConn, error) {
	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, err
	}
	return realConn{nc}, nil
}

type realConn struct {
	*nats.Conn
}

func (c realConn) SubscribeSync(subject string) (natsSubscription, error) {
	return c.Conn.SubscribeSync(subject)
}

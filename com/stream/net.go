package stream

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

const dialRetryInterval = 100 * time.Millisecond

// Accept listens on addr and waits for exactly one peer to connect. The
// listener is closed once the peer is connected.
func Accept(ctx context.Context, addr string) (*Comm, error) {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("stream: listen on %s: %w", addr, err)
	}
	defer listener.Close()

	logrus.WithField("addr", listener.Addr().String()).
		Info("Waiting for coupling partner")

	type result struct {
		conn net.Conn
		err  error
	}

	accepted := make(chan result, 1)

	go func() {
		conn, err := listener.Accept()
		accepted <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		listener.Close()
		return nil, ctx.Err()
	case r := <-accepted:
		if r.err != nil {
			return nil, fmt.Errorf("stream: accept on %s: %w", addr, r.err)
		}

		return New(r.conn), nil
	}
}

// Dial connects to a peer that called Accept. It keeps retrying until the
// peer is up or ctx is done.
func Dial(ctx context.Context, addr string) (*Comm, error) {
	var d net.Dialer

	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			logrus.WithField("addr", addr).Info("Connected to coupling partner")
			return New(conn), nil
		}

		logrus.WithField("addr", addr).WithError(err).
			Debug("Coupling partner not reachable yet")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("stream: dial %s: %w", addr, ctx.Err())
		case <-time.After(dialRetryInterval):
		}
	}
}

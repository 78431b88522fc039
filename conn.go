package chnative

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/go-faster/errors"

	"github.com/gear6io/chnative/wire"
)

// connection is the buffered byte transport under a session: one TCP
// (optionally TLS) stream with wire-level reader/writer on top.
type connection struct {
	conn net.Conn
	r    *wire.Reader
	w    *wire.Writer
	bw   *bufio.Writer

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// dial walks the endpoint list in order and returns the first connection
// that completes TCP (and TLS, when configured) setup.
func dial(ctx context.Context, opt *Options) (*connection, string, error) {
	var lastErr error
	for _, addr := range opt.Addr {
		conn, err := dialOne(ctx, addr, opt)
		if err != nil {
			opt.Logger.Debug().Str("addr", addr).Err(err).Msg("endpoint failed, trying next")
			lastErr = err
			continue
		}
		return conn, addr, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no endpoints configured")
	}
	return nil, "", errors.Wrap(lastErr, "all endpoints failed")
}

func dialOne(ctx context.Context, addr string, opt *Options) (*connection, error) {
	var raw net.Conn
	var err error
	if opt.DialContext != nil {
		raw, err = opt.DialContext(ctx, addr)
	} else {
		d := net.Dialer{Timeout: opt.DialTimeout}
		raw, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	if tcp, ok := raw.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(opt.tcpNoDelay()); err != nil {
			raw.Close()
			return nil, errors.Wrap(err, "set TCP_NODELAY")
		}
		if ka := opt.KeepAlive; ka != nil {
			cfg := net.KeepAliveConfig{
				Enable:   true,
				Idle:     ka.Idle,
				Interval: ka.Interval,
				Count:    ka.Count,
			}
			if err := tcp.SetKeepAliveConfig(cfg); err != nil {
				raw.Close()
				return nil, errors.Wrap(err, "set keepalive")
			}
		}
	}

	conn := raw
	if opt.TLS != nil {
		host, _, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			host = addr
		}
		cfg, err := opt.TLS.Build(host)
		if err != nil {
			raw.Close()
			return nil, err
		}
		tlsConn := tls.Client(raw, cfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, errors.Wrap(err, "TLS handshake")
		}
		conn = tlsConn
	}

	bw := bufio.NewWriterSize(conn, 8192)
	return &connection{
		conn:         conn,
		r:            wire.NewReader(bufio.NewReaderSize(conn, 8192)),
		w:            wire.NewWriter(bw),
		bw:           bw,
		readTimeout:  opt.ReadTimeout,
		writeTimeout: opt.WriteTimeout,
	}, nil
}

// prepareRead arms the receive deadline for the next read.
func (c *connection) prepareRead() error {
	if c.readTimeout <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
}

// flush pushes pending writes, arming the send deadline first. Every
// read that expects a server response is preceded by a flush.
func (c *connection) flush() error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.bw.Flush()
}

func (c *connection) close() error {
	return c.conn.Close()
}

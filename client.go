package chnative

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gear6io/chnative/block"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
)

// Error codes surfaced by the session layer.
var (
	ErrUnexpectedPacket = errors.MustNewCode("protocol.unexpected_packet")
	ErrHandshake        = errors.MustNewCode("protocol.handshake")
	ErrServerException  = errors.MustNewCode("server.exception")
	ErrClosed           = errors.MustNewCode("client.closed")
)

// Client is one session over one connection. It is not safe for
// concurrent use; callers serialize access or hold one client per
// goroutine.
type Client struct {
	opt  *Options
	conn *connection
	log  zerolog.Logger

	server ServerInfo
	info   clientInfo

	blockRead  *block.Reader
	blockWrite *block.Writer

	closed bool
}

// Connect dials the endpoint list in order, performs the Hello exchange
// on the first endpoint that answers, and returns a ready session.
func Connect(ctx context.Context, opt *Options) (*Client, error) {
	if opt == nil {
		opt = &Options{}
	}
	o := opt.SetDefaults()

	conn, addr, err := dial(ctx, o)
	if err != nil {
		return nil, err
	}

	c := &Client{
		opt:  o,
		conn: conn,
		log:  o.Logger.With().Str("addr", addr).Logger(),
		info: newClientInfo(o.ClientName),
	}

	if err := c.handshake(); err != nil {
		conn.close()
		return nil, err
	}

	c.blockRead = block.NewReader(c.server.Revision)
	c.blockWrite = block.NewWriter(c.server.Revision)
	if o.Compression != nil {
		c.blockRead = c.blockRead.WithCompression(true)
		c.blockWrite = c.blockWrite.WithCompression(o.Compression.Method)
	}

	c.log.Info().
		Str("server", c.server.String()).
		Str("timezone", c.server.Timezone).
		Msg("connected")
	return c, nil
}

func (c *Client) handshake() error {
	w := c.conn.w
	if err := w.WriteUVarint(protocol.ClientHello); err != nil {
		return err
	}
	if err := w.WriteString(c.opt.ClientName); err != nil {
		return err
	}
	if err := w.WriteUVarint(protocol.ClientVersionMajor); err != nil {
		return err
	}
	if err := w.WriteUVarint(protocol.ClientVersionMinor); err != nil {
		return err
	}
	if err := w.WriteUVarint(protocol.ClientRevision); err != nil {
		return err
	}
	if err := w.WriteString(c.opt.Auth.Database); err != nil {
		return err
	}
	if err := w.WriteString(c.opt.Auth.Username); err != nil {
		return err
	}
	if err := w.WriteString(c.opt.Auth.Password); err != nil {
		return err
	}
	if err := c.conn.flush(); err != nil {
		return err
	}

	if err := c.conn.prepareRead(); err != nil {
		return err
	}
	code, err := c.conn.r.ReadUVarint()
	if err != nil {
		return err
	}
	switch code {
	case protocol.ServerHello:
	case protocol.ServerException:
		exc, err := c.readException()
		if err != nil {
			return err
		}
		return errors.Wrap(ErrServerException, exc, "handshake rejected")
	default:
		return errors.Newf(ErrHandshake,
			"expected Hello, got %s", protocol.ServerPacketName(code))
	}

	r := c.conn.r
	if c.server.Name, err = r.ReadString(); err != nil {
		return err
	}
	if c.server.VersionMajor, err = r.ReadUVarint(); err != nil {
		return err
	}
	if c.server.VersionMinor, err = r.ReadUVarint(); err != nil {
		return err
	}
	if c.server.Revision, err = r.ReadUVarint(); err != nil {
		return err
	}
	if c.server.Revision >= protocol.DBMSMinRevisionWithServerTimezone {
		if c.server.Timezone, err = r.ReadString(); err != nil {
			return err
		}
	}
	if c.server.Revision >= protocol.DBMSMinRevisionWithServerDisplayName {
		if c.server.DisplayName, err = r.ReadString(); err != nil {
			return err
		}
	}
	if c.server.Revision >= protocol.DBMSMinRevisionWithVersionPatch {
		if c.server.VersionPatch, err = r.ReadUVarint(); err != nil {
			return err
		}
	}

	// Addendum: quota key, sent after the server hello.
	if c.server.Revision >= protocol.DBMSMinProtocolVersionWithAddendum {
		if err := w.WriteString(""); err != nil {
			return err
		}
		if err := c.conn.flush(); err != nil {
			return err
		}
	}
	return nil
}

// ServerInfo returns the identity negotiated at Hello.
func (c *Client) ServerInfo() ServerInfo {
	return c.server
}

// Ping runs a Ping/Pong round-trip; any other response is a protocol
// error that poisons the session.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.guard(ctx); err != nil {
		return err
	}
	if err := c.conn.w.WriteUVarint(protocol.ClientPing); err != nil {
		return c.fatal(err)
	}
	if err := c.conn.flush(); err != nil {
		return c.fatal(err)
	}
	if err := c.conn.prepareRead(); err != nil {
		return c.fatal(err)
	}
	code, err := c.conn.r.ReadUVarint()
	if err != nil {
		return c.fatal(err)
	}
	if code != protocol.ServerPong {
		return c.fatal(errors.Newf(ErrUnexpectedPacket,
			"expected Pong, got %s", protocol.ServerPacketName(code)))
	}
	c.log.Debug().Msg("pong")
	return nil
}

// Cancel asks the server to abort the in-flight query. The router keeps
// draining packets afterwards; a clean EndOfStream leaves the session
// usable.
func (c *Client) Cancel() error {
	if c.closed {
		return errors.New(ErrClosed, "session is closed")
	}
	if err := c.conn.w.WriteUVarint(protocol.ClientCancel); err != nil {
		return c.fatal(err)
	}
	if err := c.conn.flush(); err != nil {
		return c.fatal(err)
	}
	c.log.Debug().Msg("cancel sent")
	return nil
}

// Close tears down the connection. The session cannot be reused.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.close()
}

func (c *Client) guard(ctx context.Context) error {
	if c.closed {
		return errors.New(ErrClosed, "session is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// fatal marks the session unusable: a transport or protocol failure
// leaves the packet stream in an unknown state and recovery is not
// possible.
func (c *Client) fatal(err error) error {
	if !c.closed {
		c.closed = true
		c.conn.close()
	}
	return err
}

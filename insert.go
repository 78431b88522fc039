package chnative

import (
	"context"
	"strings"

	"github.com/gear6io/chnative/block"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
)

// ErrEmptyInsert flags an insert with nothing to send.
var ErrEmptyInsert = errors.MustNewCode("client.empty_insert")

// Insert streams a block into a table. The statement is built from the
// block's column names; the server answers with a schema header block
// that is fully consumed before any data flows, then the block and an
// empty terminator are sent and the stream drained to EndOfStream.
func (c *Client) Insert(ctx context.Context, table string, b *block.Block) error {
	if err := c.guard(ctx); err != nil {
		return err
	}
	if b.Columns() == 0 {
		return errors.New(ErrEmptyInsert, "block has no columns")
	}

	names := make([]string, b.Columns())
	for i := range names {
		names[i] = escapeIdent(b.Name(i))
	}
	query := "INSERT INTO " + escapeTable(table) +
		" (" + strings.Join(names, ", ") + ") VALUES"

	c.log.Debug().Str("table", table).Int("rows", b.Rows()).Msg("insert")
	if err := c.sendQuery(&Query{Body: query}); err != nil {
		return c.fatal(err)
	}

	// The server replies with an empty block carrying the expected column
	// schema; its payload must be consumed completely or the stream
	// desynchronizes.
	if err := c.awaitInsertHeader(ctx); err != nil {
		return err
	}

	if err := c.sendDataBlock(b); err != nil {
		return c.fatal(err)
	}
	if err := c.sendDataBlock(block.New()); err != nil {
		return c.fatal(err)
	}
	if err := c.conn.flush(); err != nil {
		return c.fatal(err)
	}

	return c.drainInsert(ctx)
}

func (c *Client) awaitInsertHeader(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return c.fatal(err)
		}
		if err := c.conn.prepareRead(); err != nil {
			return c.fatal(err)
		}
		code, err := c.conn.r.ReadUVarint()
		if err != nil {
			return c.fatal(err)
		}
		switch code {
		case protocol.ServerData:
			if _, err := c.readDataBlock(c.blockRead); err != nil {
				return c.fatal(err)
			}
			return nil
		case protocol.ServerTableColumns:
			if err := c.skipTableColumns(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerProgress:
			if _, err := c.readProgress(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerLog:
			if _, err := c.readRawBlock(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerProfileEvents:
			if _, err := c.readRawBlock(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerException:
			exc, err := c.readException()
			if err != nil {
				return c.fatal(err)
			}
			return errors.Wrap(ErrServerException, exc, "insert rejected")
		default:
			return c.fatal(errors.Newf(ErrUnexpectedPacket,
				"unexpected packet %s while awaiting insert header",
				protocol.ServerPacketName(code)))
		}
	}
}

func (c *Client) drainInsert(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return c.fatal(err)
		}
		if err := c.conn.prepareRead(); err != nil {
			return c.fatal(err)
		}
		code, err := c.conn.r.ReadUVarint()
		if err != nil {
			return c.fatal(err)
		}
		switch code {
		case protocol.ServerEndOfStream:
			c.log.Debug().Msg("insert complete")
			return nil
		case protocol.ServerData:
			if _, err := c.readDataBlock(c.blockRead); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerProgress:
			if _, err := c.readProgress(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerLog:
			if _, err := c.readRawBlock(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerProfileEvents:
			if _, err := c.readRawBlock(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerTableColumns:
			if err := c.skipTableColumns(); err != nil {
				return c.fatal(err)
			}
		case protocol.ServerException:
			exc, err := c.readException()
			if err != nil {
				return c.fatal(err)
			}
			return errors.Wrap(ErrServerException, exc, "insert failed")
		default:
			return c.fatal(errors.Newf(ErrUnexpectedPacket,
				"unexpected packet %s while draining insert",
				protocol.ServerPacketName(code)))
		}
	}
}

// escapeIdent backtick-quotes one identifier.
func escapeIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// escapeTable quotes a possibly database-qualified table name.
func escapeTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = escapeIdent(p)
	}
	return strings.Join(parts, ".")
}

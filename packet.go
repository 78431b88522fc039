package chnative

import (
	"context"

	"github.com/gear6io/chnative/block"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
)

// Do sends a query and runs the packet router until EndOfStream. Blocks
// stream through q.OnData when set (returning false cancels), and are
// accumulated on the Result otherwise.
func (c *Client) Do(ctx context.Context, q Query) (*Result, error) {
	if err := c.guard(ctx); err != nil {
		return nil, err
	}
	if c.opt.PingBeforeQuery {
		if err := c.Ping(ctx); err != nil {
			return nil, err
		}
	}

	c.log.Debug().Str("query", q.Body).Msg("executing query")
	if err := c.sendQuery(&q); err != nil {
		return nil, c.fatal(err)
	}

	res := &Result{}
	canceled := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, c.fatal(err)
		}
		if err := c.conn.prepareRead(); err != nil {
			return nil, c.fatal(err)
		}
		code, err := c.conn.r.ReadUVarint()
		if err != nil {
			return nil, c.fatal(err)
		}

		switch code {
		case protocol.ServerData:
			b, err := c.readDataBlock(c.blockRead)
			if err != nil {
				return nil, c.fatal(err)
			}
			if b.Columns() == 0 || b.Rows() == 0 {
				continue
			}
			if canceled {
				continue
			}
			if q.OnData != nil {
				if !q.OnData(b) {
					if err := c.Cancel(); err != nil {
						return nil, err
					}
					canceled = true
				}
				continue
			}
			res.Blocks = append(res.Blocks, b)

		case protocol.ServerTotals:
			b, err := c.readDataBlock(c.blockRead)
			if err != nil {
				return nil, c.fatal(err)
			}
			res.Totals = b

		case protocol.ServerExtremes:
			b, err := c.readDataBlock(c.blockRead)
			if err != nil {
				return nil, c.fatal(err)
			}
			res.Extremes = b

		case protocol.ServerProgress:
			p, err := c.readProgress()
			if err != nil {
				return nil, c.fatal(err)
			}
			res.Progress = p
			if q.OnProgress != nil {
				q.OnProgress(p)
			}

		case protocol.ServerProfileInfo:
			info, err := c.readProfileInfo()
			if err != nil {
				return nil, c.fatal(err)
			}
			res.Profile = info
			if q.OnProfile != nil {
				q.OnProfile(info)
			}

		case protocol.ServerLog:
			b, err := c.readRawBlock()
			if err != nil {
				return nil, c.fatal(err)
			}
			if q.OnServerLog != nil {
				q.OnServerLog(b)
			}

		case protocol.ServerProfileEvents:
			b, err := c.readRawBlock()
			if err != nil {
				return nil, c.fatal(err)
			}
			if q.OnProfileEvents != nil {
				q.OnProfileEvents(b)
			}

		case protocol.ServerTableColumns:
			if err := c.skipTableColumns(); err != nil {
				return nil, c.fatal(err)
			}

		case protocol.ServerException:
			exc, err := c.readException()
			if err != nil {
				return nil, c.fatal(err)
			}
			if q.OnException != nil {
				q.OnException(exc)
			}
			return nil, errors.Wrap(ErrServerException, exc, "query failed")

		case protocol.ServerEndOfStream:
			c.log.Debug().Int("blocks", len(res.Blocks)).Msg("end of stream")
			return res, nil

		default:
			return nil, c.fatal(errors.Newf(ErrUnexpectedPacket,
				"unexpected packet %s", protocol.ServerPacketName(code)))
		}
	}
}

func (c *Client) sendQuery(q *Query) error {
	w := c.conn.w
	rev := c.server.Revision

	if err := w.WriteUVarint(protocol.ClientQuery); err != nil {
		return err
	}
	if err := w.WriteString(q.QueryID); err != nil {
		return err
	}

	if rev >= protocol.DBMSMinRevisionWithClientInfo {
		if err := c.writeClientInfo(q, rev); err != nil {
			return err
		}
	}

	// Settings, serialized as strings, terminated by an empty name.
	if rev >= protocol.DBMSMinRevisionWithSettingsSerializedAsStrings {
		merged := make(map[string]string, len(c.opt.Settings)+len(q.Settings))
		for k, v := range c.opt.Settings {
			merged[k] = v
		}
		for k, v := range q.Settings {
			merged[k] = v
		}
		for k, v := range merged {
			if err := w.WriteString(k); err != nil {
				return err
			}
			if err := w.WriteUVarint(0); err != nil { // flags
				return err
			}
			if err := w.WriteString(v); err != nil {
				return err
			}
		}
	}
	if err := w.WriteString(""); err != nil {
		return err
	}

	if rev >= protocol.DBMSMinRevisionWithInterserverSecret {
		if err := w.WriteString(""); err != nil {
			return err
		}
	}

	if err := w.WriteUVarint(protocol.StageComplete); err != nil {
		return err
	}
	compression := protocol.CompressDisable
	if c.opt.Compression != nil {
		compression = protocol.CompressEnable
	}
	if err := w.WriteUVarint(compression); err != nil {
		return err
	}
	if err := w.WriteString(q.Body); err != nil {
		return err
	}

	// Parameters are serialized as custom-typed quoted strings.
	if rev >= protocol.DBMSMinProtocolVersionWithParameters {
		for k, v := range q.Parameters {
			if err := w.WriteString(k); err != nil {
				return err
			}
			if err := w.WriteUVarint(2); err != nil { // custom type
				return err
			}
			if err := w.WriteQuotedString(v); err != nil {
				return err
			}
		}
		if err := w.WriteString(""); err != nil {
			return err
		}
	}

	// An empty data block closes the external-tables section.
	if err := c.sendDataBlock(block.New()); err != nil {
		return err
	}
	return c.conn.flush()
}

func (c *Client) writeClientInfo(q *Query, rev uint64) error {
	w := c.conn.w
	if err := w.WriteUInt8(uint8(protocol.QueryKindInitial)); err != nil {
		return err
	}
	if err := w.WriteString(c.info.initialUser); err != nil {
		return err
	}
	if err := w.WriteString(c.info.initialQueryID); err != nil {
		return err
	}
	if err := w.WriteString(c.info.initialAddress); err != nil {
		return err
	}
	if rev >= protocol.DBMSMinRevisionWithInitialQueryStartTime {
		if err := w.WriteInt64(0); err != nil {
			return err
		}
	}
	if err := w.WriteUInt8(protocol.InterfaceTCP); err != nil {
		return err
	}
	if err := w.WriteString(c.info.osUser); err != nil {
		return err
	}
	if err := w.WriteString(c.info.hostname); err != nil {
		return err
	}
	if err := w.WriteString(c.info.clientName); err != nil {
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
	if rev >= protocol.DBMSMinRevisionWithQuotaKeyInClientInfo {
		if err := w.WriteString(""); err != nil {
			return err
		}
	}
	if rev >= protocol.DBMSMinRevisionWithDistributedDepth {
		if err := w.WriteUVarint(0); err != nil {
			return err
		}
	}
	if rev >= protocol.DBMSMinRevisionWithVersionPatch {
		if err := w.WriteUVarint(protocol.ClientVersionPatch); err != nil {
			return err
		}
	}
	if rev >= protocol.DBMSMinRevisionWithOpenTelemetry {
		if q.Tracing.Enabled() {
			if err := w.WriteUInt8(1); err != nil {
				return err
			}
			if err := w.WriteUInt128(q.Tracing.TraceIDLow, q.Tracing.TraceIDHigh); err != nil {
				return err
			}
			if err := w.WriteUInt64(q.Tracing.SpanID); err != nil {
				return err
			}
			if err := w.WriteString(q.Tracing.TraceState); err != nil {
				return err
			}
			if err := w.WriteUInt8(q.Tracing.TraceFlags); err != nil {
				return err
			}
		} else if err := w.WriteUInt8(0); err != nil {
			return err
		}
	}
	if rev >= protocol.DBMSMinRevisionWithParallelReplicas {
		if err := w.WriteUVarint(0); err != nil { // collaborate_with_initiator
			return err
		}
		if err := w.WriteUVarint(0); err != nil { // count_participating_replicas
			return err
		}
		if err := w.WriteUVarint(0); err != nil { // number_of_current_replica
			return err
		}
	}
	return nil
}

// sendDataBlock frames one client Data packet. The caller flushes.
func (c *Client) sendDataBlock(b *block.Block) error {
	if err := c.conn.w.WriteUVarint(protocol.ClientData); err != nil {
		return err
	}
	if c.server.Revision >= protocol.DBMSMinRevisionWithTemporaryTables {
		if err := c.conn.w.WriteString(""); err != nil {
			return err
		}
	}
	return c.blockWrite.Write(c.conn.w, b)
}

// readDataBlock consumes the payload of a Data/Totals/Extremes packet.
func (c *Client) readDataBlock(reader *block.Reader) (*block.Block, error) {
	if c.server.Revision >= protocol.DBMSMinRevisionWithTemporaryTables {
		if err := c.conn.r.SkipString(); err != nil {
			return nil, err
		}
	}
	return reader.Read(c.conn.r)
}

// readRawBlock consumes a Log/ProfileEvents payload, which is never
// compressed regardless of negotiation.
func (c *Client) readRawBlock() (*block.Block, error) {
	if err := c.conn.r.SkipString(); err != nil {
		return nil, err
	}
	return c.blockRead.ReadUncompressed(c.conn.r)
}

func (c *Client) skipTableColumns() error {
	if err := c.conn.r.SkipString(); err != nil {
		return err
	}
	return c.conn.r.SkipString()
}

func (c *Client) readProgress() (Progress, error) {
	var p Progress
	var err error
	r := c.conn.r
	if p.Rows, err = r.ReadUVarint(); err != nil {
		return p, err
	}
	if p.Bytes, err = r.ReadUVarint(); err != nil {
		return p, err
	}
	if c.server.Revision >= protocol.DBMSMinRevisionWithTotalRowsInProgress {
		if p.TotalRows, err = r.ReadUVarint(); err != nil {
			return p, err
		}
	}
	if c.server.Revision >= protocol.DBMSMinRevisionWithClientWriteInfo {
		if p.WrittenRows, err = r.ReadUVarint(); err != nil {
			return p, err
		}
		if p.WrittenBytes, err = r.ReadUVarint(); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (c *Client) readProfileInfo() (ProfileInfo, error) {
	var info ProfileInfo
	var err error
	r := c.conn.r
	if info.Rows, err = r.ReadUVarint(); err != nil {
		return info, err
	}
	if info.Blocks, err = r.ReadUVarint(); err != nil {
		return info, err
	}
	if info.Bytes, err = r.ReadUVarint(); err != nil {
		return info, err
	}
	if info.AppliedLimit, err = r.ReadBool(); err != nil {
		return info, err
	}
	if info.RowsBeforeLimit, err = r.ReadUVarint(); err != nil {
		return info, err
	}
	if info.CalculatedRowsBeforeLimit, err = r.ReadBool(); err != nil {
		return info, err
	}
	return info, nil
}

func (c *Client) readException() (*Exception, error) {
	var exc Exception
	var err error
	r := c.conn.r
	if exc.Code, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if exc.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if exc.Message, err = r.ReadString(); err != nil {
		return nil, err
	}
	if exc.StackTrace, err = r.ReadString(); err != nil {
		return nil, err
	}
	hasNested, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasNested {
		if exc.Nested, err = c.readException(); err != nil {
			return nil, err
		}
	}
	return &exc, nil
}

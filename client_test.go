package chnative

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gear6io/chnative/block"
	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/compress"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
	"github.com/gear6io/chnative/wire"
)

const testRevision = 54460

// mockServer speaks the server side of the protocol over one net.Pipe
// end, enough to script handshakes, queries, and inserts.
type mockServer struct {
	conn       net.Conn
	r          *wire.Reader
	w          *wire.Writer
	rev        uint64
	compressed bool
	method     compress.Method
}

func newMockServer(conn net.Conn, rev uint64) *mockServer {
	return &mockServer{
		conn: conn,
		r:    wire.NewReader(conn),
		w:    wire.NewWriter(conn),
		rev:  rev,
	}
}

func (s *mockServer) withCompression(method compress.Method) *mockServer {
	s.compressed = true
	s.method = method
	return s
}

func (s *mockServer) blockReader() *block.Reader {
	r := block.NewReader(s.rev)
	if s.compressed {
		r = r.WithCompression(true)
	}
	return r
}

func (s *mockServer) blockWriter() *block.Writer {
	w := block.NewWriter(s.rev)
	if s.compressed {
		w = w.WithCompression(s.method)
	}
	return w
}

func (s *mockServer) acceptHandshake() error {
	code, err := s.r.ReadUVarint()
	if err != nil {
		return err
	}
	if code != protocol.ClientHello {
		return errors.Newf(ErrUnexpectedPacket, "expected client hello, got %d", code)
	}
	// name, major, minor, revision, database, user, password
	if _, err := s.r.ReadString(); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if _, err := s.r.ReadUVarint(); err != nil {
			return err
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := s.r.ReadString(); err != nil {
			return err
		}
	}

	if err := s.w.WriteUVarint(protocol.ServerHello); err != nil {
		return err
	}
	if err := s.w.WriteString("ClickHouse"); err != nil {
		return err
	}
	if err := s.w.WriteUVarint(24); err != nil {
		return err
	}
	if err := s.w.WriteUVarint(3); err != nil {
		return err
	}
	if err := s.w.WriteUVarint(s.rev); err != nil {
		return err
	}
	if s.rev >= protocol.DBMSMinRevisionWithServerTimezone {
		if err := s.w.WriteString("UTC"); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithServerDisplayName {
		if err := s.w.WriteString("mock"); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithVersionPatch {
		if err := s.w.WriteUVarint(9); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinProtocolVersionWithAddendum {
		if _, err := s.r.ReadString(); err != nil { // quota key addendum
			return err
		}
	}
	return nil
}

// readQuery consumes a full client Query packet and the trailing empty
// data block, returning the query text.
func (s *mockServer) readQuery() (string, error) {
	code, err := s.r.ReadUVarint()
	if err != nil {
		return "", err
	}
	if code != protocol.ClientQuery {
		return "", errors.Newf(ErrUnexpectedPacket, "expected query, got %d", code)
	}
	if _, err := s.r.ReadString(); err != nil { // query id
		return "", err
	}

	if s.rev >= protocol.DBMSMinRevisionWithClientInfo {
		if err := s.readClientInfo(); err != nil {
			return "", err
		}
	}

	// Settings terminated by an empty name.
	for {
		name, err := s.r.ReadString()
		if err != nil {
			return "", err
		}
		if name == "" {
			break
		}
		if _, err := s.r.ReadUVarint(); err != nil { // flags
			return "", err
		}
		if _, err := s.r.ReadString(); err != nil { // value
			return "", err
		}
	}

	if s.rev >= protocol.DBMSMinRevisionWithInterserverSecret {
		if _, err := s.r.ReadString(); err != nil {
			return "", err
		}
	}

	if _, err := s.r.ReadUVarint(); err != nil { // stage
		return "", err
	}
	if _, err := s.r.ReadUVarint(); err != nil { // compression
		return "", err
	}
	query, err := s.r.ReadString()
	if err != nil {
		return "", err
	}

	if s.rev >= protocol.DBMSMinProtocolVersionWithParameters {
		for {
			name, err := s.r.ReadString()
			if err != nil {
				return "", err
			}
			if name == "" {
				break
			}
			if _, err := s.r.ReadUVarint(); err != nil { // custom type flag
				return "", err
			}
			if _, err := s.r.ReadString(); err != nil { // quoted value
				return "", err
			}
		}
	}

	// Trailing empty block closing the external-tables section.
	if _, err := s.readClientData(); err != nil {
		return "", err
	}
	return query, nil
}

func (s *mockServer) readClientInfo() error {
	if _, err := s.r.ReadUInt8(); err != nil { // query kind
		return err
	}
	for i := 0; i < 3; i++ { // initial user, query id, address
		if _, err := s.r.ReadString(); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithInitialQueryStartTime {
		if _, err := s.r.ReadInt64(); err != nil {
			return err
		}
	}
	if _, err := s.r.ReadUInt8(); err != nil { // interface
		return err
	}
	for i := 0; i < 3; i++ { // os user, hostname, client name
		if _, err := s.r.ReadString(); err != nil {
			return err
		}
	}
	for i := 0; i < 3; i++ { // version major, minor, revision
		if _, err := s.r.ReadUVarint(); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithQuotaKeyInClientInfo {
		if _, err := s.r.ReadString(); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithDistributedDepth {
		if _, err := s.r.ReadUVarint(); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithVersionPatch {
		if _, err := s.r.ReadUVarint(); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithOpenTelemetry {
		hasTrace, err := s.r.ReadUInt8()
		if err != nil {
			return err
		}
		if hasTrace != 0 {
			if _, _, err := s.r.ReadUInt128(); err != nil {
				return err
			}
			if _, err := s.r.ReadUInt64(); err != nil {
				return err
			}
			if _, err := s.r.ReadString(); err != nil {
				return err
			}
			if _, err := s.r.ReadUInt8(); err != nil {
				return err
			}
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithParallelReplicas {
		for i := 0; i < 3; i++ {
			if _, err := s.r.ReadUVarint(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *mockServer) readClientData() (*block.Block, error) {
	code, err := s.r.ReadUVarint()
	if err != nil {
		return nil, err
	}
	if code != protocol.ClientData {
		return nil, errors.Newf(ErrUnexpectedPacket, "expected client data, got %d", code)
	}
	if s.rev >= protocol.DBMSMinRevisionWithTemporaryTables {
		if _, err := s.r.ReadString(); err != nil {
			return nil, err
		}
	}
	return s.blockReader().Read(s.r)
}

func (s *mockServer) sendDataBlock(b *block.Block) error {
	if err := s.w.WriteUVarint(protocol.ServerData); err != nil {
		return err
	}
	if s.rev >= protocol.DBMSMinRevisionWithTemporaryTables {
		if err := s.w.WriteString(""); err != nil {
			return err
		}
	}
	return s.blockWriter().Write(s.w, b)
}

func (s *mockServer) sendProgress(rows, bytes uint64) error {
	if err := s.w.WriteUVarint(protocol.ServerProgress); err != nil {
		return err
	}
	if err := s.w.WriteUVarint(rows); err != nil {
		return err
	}
	if err := s.w.WriteUVarint(bytes); err != nil {
		return err
	}
	if s.rev >= protocol.DBMSMinRevisionWithTotalRowsInProgress {
		if err := s.w.WriteUVarint(rows); err != nil {
			return err
		}
	}
	if s.rev >= protocol.DBMSMinRevisionWithClientWriteInfo {
		if err := s.w.WriteUVarint(0); err != nil {
			return err
		}
		if err := s.w.WriteUVarint(0); err != nil {
			return err
		}
	}
	return nil
}

func (s *mockServer) sendEndOfStream() error {
	return s.w.WriteUVarint(protocol.ServerEndOfStream)
}

func (s *mockServer) sendException(code int32, name, message string) error {
	if err := s.w.WriteUVarint(protocol.ServerException); err != nil {
		return err
	}
	if err := s.w.WriteInt32(code); err != nil {
		return err
	}
	if err := s.w.WriteString(name); err != nil {
		return err
	}
	if err := s.w.WriteString(message); err != nil {
		return err
	}
	if err := s.w.WriteString("stack"); err != nil {
		return err
	}
	return s.w.WriteUInt8(0)
}

func (s *mockServer) expectPacket(want uint64) error {
	code, err := s.r.ReadUVarint()
	if err != nil {
		return err
	}
	if code != want {
		return errors.Newf(ErrUnexpectedPacket, "expected packet %d, got %d", want, code)
	}
	return nil
}

func numberBlock(from, count uint64) *block.Block {
	col := column.NewUInt64()
	for v := from; v < from+count; v++ {
		col.Append(v)
	}
	b := block.New()
	b.AddColumn("number", col)
	return b
}

// startSession wires a client to a scripted mock server over net.Pipe.
func startSession(t *testing.T, rev uint64, opt *Options, script func(*mockServer) error) (*Client, <-chan error) {
	t.Helper()
	clientEnd, serverEnd := net.Pipe()

	if opt == nil {
		opt = &Options{}
	}
	opt.Addr = []string{"mock:9000"}
	opt.DialContext = func(context.Context, string) (net.Conn, error) {
		return clientEnd, nil
	}
	opt.ReadTimeout = 5 * time.Second
	opt.WriteTimeout = 5 * time.Second

	srv := newMockServer(serverEnd, rev)
	if opt.Compression != nil {
		srv.withCompression(opt.Compression.Method)
	}

	done := make(chan error, 1)
	go func() {
		defer serverEnd.Close()
		if err := srv.acceptHandshake(); err != nil {
			done <- err
			return
		}
		done <- script(srv)
	}()

	client, err := Connect(context.Background(), opt)
	require.NoError(t, err)
	return client, done
}

func TestHandshakeAndPing(t *testing.T) {
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		if err := s.expectPacket(protocol.ClientPing); err != nil {
			return err
		}
		return s.w.WriteUVarint(protocol.ServerPong)
	})
	defer client.Close()

	info := client.ServerInfo()
	assert.Equal(t, "ClickHouse", info.Name)
	assert.Equal(t, uint64(testRevision), info.Revision)
	assert.Equal(t, "UTC", info.Timezone)
	assert.Equal(t, "mock", info.DisplayName)
	assert.Equal(t, uint64(9), info.VersionPatch)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, <-done)
}

func TestHandshakeOldRevision(t *testing.T) {
	const oldRev = 54058
	client, done := startSession(t, oldRev, nil, func(s *mockServer) error {
		if err := s.expectPacket(protocol.ClientPing); err != nil {
			return err
		}
		return s.w.WriteUVarint(protocol.ServerPong)
	})
	defer client.Close()

	info := client.ServerInfo()
	assert.Equal(t, uint64(oldRev), info.Revision)
	assert.Empty(t, info.DisplayName)
	assert.Zero(t, info.VersionPatch)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, <-done)
}

func TestHandshakeRejected(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	opt := &Options{
		Addr: []string{"mock:9000"},
		DialContext: func(context.Context, string) (net.Conn, error) {
			return clientEnd, nil
		},
	}

	go func() {
		defer serverEnd.Close()
		s := newMockServer(serverEnd, testRevision)
		// Read the hello, then refuse.
		code, _ := s.r.ReadUVarint()
		_ = code
		s.r.ReadString()
		for i := 0; i < 3; i++ {
			s.r.ReadUVarint()
		}
		for i := 0; i < 3; i++ {
			s.r.ReadString()
		}
		s.sendException(516, "DB::Exception", "Authentication failed")
	}()

	_, err := Connect(context.Background(), opt)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrServerException))
	assert.Contains(t, err.Error(), "Authentication failed")
}

func TestPingUnexpectedPacket(t *testing.T) {
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		if err := s.expectPacket(protocol.ClientPing); err != nil {
			return err
		}
		return s.w.WriteUVarint(protocol.ServerProgress)
	})

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnexpectedPacket))
	require.NoError(t, <-done)

	// A protocol error poisons the session.
	require.Error(t, client.Ping(context.Background()))
}

func TestTinySelect(t *testing.T) {
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		query, err := s.readQuery()
		if err != nil {
			return err
		}
		if query != "SELECT number, number+10 AS x FROM system.numbers LIMIT 3" {
			return errors.Newf(ErrUnexpectedPacket, "unexpected query %q", query)
		}

		b := block.New()
		num := column.NewUInt64()
		num.AppendMany(0, 1, 2)
		x := column.NewUInt64()
		x.AppendMany(10, 11, 12)
		b.AddColumn("number", num)
		b.AddColumn("x", x)

		if err := s.sendDataBlock(b); err != nil {
			return err
		}
		if err := s.sendProgress(3, 24); err != nil {
			return err
		}
		return s.sendEndOfStream()
	})
	defer client.Close()

	var progressSeen bool
	res, err := client.Do(context.Background(), Query{
		Body: "SELECT number, number+10 AS x FROM system.numbers LIMIT 3",
		OnProgress: func(p Progress) {
			progressSeen = true
			assert.Equal(t, uint64(3), p.Rows)
		},
	})
	require.NoError(t, err)
	require.NoError(t, <-done)

	require.Len(t, res.Blocks, 1)
	b := res.Blocks[0]
	require.Equal(t, 2, b.Columns())
	assert.Equal(t, "number", b.Name(0))
	assert.Equal(t, "x", b.Name(1))
	assert.Equal(t, []any{uint64(0), uint64(10)}, b.Row(0))
	assert.Equal(t, []any{uint64(1), uint64(11)}, b.Row(1))
	assert.Equal(t, []any{uint64(2), uint64(12)}, b.Row(2))
	assert.True(t, progressSeen)
	assert.Equal(t, 3, res.Rows())
}

func TestSelectCompressed(t *testing.T) {
	const rows = 100_000
	opt := &Options{Compression: &Compression{Method: compress.LZ4}}

	client, done := startSession(t, testRevision, opt, func(s *mockServer) error {
		if _, err := s.readQuery(); err != nil {
			return err
		}
		if err := s.sendDataBlock(numberBlock(0, rows)); err != nil {
			return err
		}
		return s.sendEndOfStream()
	})
	defer client.Close()

	res, err := client.Do(context.Background(), Query{Body: "SELECT number FROM system.numbers LIMIT 100000"})
	require.NoError(t, err)
	require.NoError(t, <-done)

	require.Equal(t, rows, res.Rows())
	col := res.Blocks[0].Column(0).(*column.UInt64)
	assert.Equal(t, uint64(0), col.Row(0))
	assert.Equal(t, uint64(99_999), col.Row(rows-1))
}

func TestSelectException(t *testing.T) {
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		if _, err := s.readQuery(); err != nil {
			return err
		}
		return s.sendException(60, "DB::Exception", "Table default.missing does not exist")
	})
	defer client.Close()

	var seen *Exception
	_, err := client.Do(context.Background(), Query{
		Body:        "SELECT * FROM missing",
		OnException: func(e *Exception) { seen = e },
	})
	require.Error(t, err)
	require.NoError(t, <-done)

	assert.True(t, errors.HasCode(err, ErrServerException))
	require.NotNil(t, seen)
	assert.Equal(t, int32(60), seen.Code)
	assert.Contains(t, seen.Message, "does not exist")
}

func TestCancelMidStream(t *testing.T) {
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		if _, err := s.readQuery(); err != nil {
			return err
		}
		if err := s.sendDataBlock(numberBlock(0, 10)); err != nil {
			return err
		}
		if err := s.sendDataBlock(numberBlock(10, 10)); err != nil {
			return err
		}
		if err := s.expectPacket(protocol.ClientCancel); err != nil {
			return err
		}
		// The server acknowledges by finishing the stream; a straggler
		// block is discarded by the draining router.
		if err := s.sendDataBlock(numberBlock(20, 10)); err != nil {
			return err
		}
		if err := s.sendEndOfStream(); err != nil {
			return err
		}

		// The session stays usable after a clean cancel.
		if err := s.expectPacket(protocol.ClientPing); err != nil {
			return err
		}
		return s.w.WriteUVarint(protocol.ServerPong)
	})
	defer client.Close()

	blocks := 0
	res, err := client.Do(context.Background(), Query{
		Body: "SELECT number FROM system.numbers",
		OnData: func(b *block.Block) bool {
			blocks++
			return blocks < 2
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, blocks)
	assert.Empty(t, res.Blocks)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, <-done)
}

func TestInsertFlow(t *testing.T) {
	var gotQuery string
	var received *block.Block

	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		query, err := s.readQuery()
		if err != nil {
			return err
		}
		gotQuery = query

		// Schema header: an empty block naming the expected columns.
		header := block.New()
		header.AddColumn("a", column.NewInt64())
		header.AddColumn("s", column.NewString())
		nullable, err := column.New(column.TNullable(column.TFloat64))
		if err != nil {
			return err
		}
		header.AddColumn("n", nullable)
		if err := s.sendDataBlock(header); err != nil {
			return err
		}

		// Payload block then the empty terminator.
		data, err := s.readClientData()
		if err != nil {
			return err
		}
		received = data
		terminator, err := s.readClientData()
		if err != nil {
			return err
		}
		if terminator.Columns() != 0 {
			return errors.Newf(ErrUnexpectedPacket, "terminator block not empty")
		}

		if err := s.sendProgress(3, 100); err != nil {
			return err
		}
		return s.sendEndOfStream()
	})
	defer client.Close()

	a := column.NewInt64()
	a.AppendMany(1, -2, 1000)
	s := column.NewString()
	s.Append("hi")
	s.Append("")
	s.Append(string(make([]byte, 300)))
	n, err := column.New(column.TNullable(column.TFloat64))
	require.NoError(t, err)
	require.NoError(t, n.AppendValue(nil))
	require.NoError(t, n.AppendValue(3.5))
	require.NoError(t, n.AppendValue(0.0))

	b := block.New()
	require.NoError(t, b.AddColumn("a", a))
	require.NoError(t, b.AddColumn("s", s))
	require.NoError(t, b.AddColumn("n", n))

	require.NoError(t, client.Insert(context.Background(), "t", b))
	require.NoError(t, <-done)

	assert.Equal(t, "INSERT INTO `t` (`a`, `s`, `n`) VALUES", gotQuery)
	require.NotNil(t, received)
	require.Equal(t, 3, received.Rows())
	assert.Equal(t, []any{int64(1), "hi", nil}, received.Row(0))
	assert.Equal(t, []any{int64(-2), "", 3.5}, received.Row(1))

	// The null survives distinctly from zero.
	assert.Nil(t, received.Row(0)[2])
	assert.Equal(t, 0.0, received.Row(2)[2])
}

func TestInsertExceptionBeforeData(t *testing.T) {
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		if _, err := s.readQuery(); err != nil {
			return err
		}
		return s.sendException(60, "DB::Exception", "no such table")
	})
	defer client.Close()

	col := column.NewInt64()
	col.Append(1)
	b := block.New()
	require.NoError(t, b.AddColumn("a", col))

	err := client.Insert(context.Background(), "missing", b)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrServerException))
	require.NoError(t, <-done)
}

func TestInsertEscapesIdentifiers(t *testing.T) {
	var gotQuery string
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		query, err := s.readQuery()
		if err != nil {
			return err
		}
		gotQuery = query
		header := block.New()
		header.AddColumn("weird`name", column.NewUInt8())
		if err := s.sendDataBlock(header); err != nil {
			return err
		}
		if _, err := s.readClientData(); err != nil {
			return err
		}
		if _, err := s.readClientData(); err != nil {
			return err
		}
		return s.sendEndOfStream()
	})
	defer client.Close()

	col := column.NewUInt8()
	col.Append(1)
	b := block.New()
	require.NoError(t, b.AddColumn("weird`name", col))

	require.NoError(t, client.Insert(context.Background(), "db.events", b))
	require.NoError(t, <-done)
	assert.Equal(t, "INSERT INTO `db`.`events` (`weird``name`) VALUES", gotQuery)
}

func TestServerLogAndProfileEventsAreRaw(t *testing.T) {
	// Log and ProfileEvents blocks bypass compression even when it is
	// negotiated.
	opt := &Options{Compression: &Compression{Method: compress.ZSTD}}
	client, done := startSession(t, testRevision, opt, func(s *mockServer) error {
		if _, err := s.readQuery(); err != nil {
			return err
		}

		logBlock := block.New()
		msg := column.NewString()
		msg.Append("reading 42 marks")
		logBlock.AddColumn("text", msg)

		if err := s.w.WriteUVarint(protocol.ServerLog); err != nil {
			return err
		}
		if err := s.w.WriteString(""); err != nil {
			return err
		}
		// Raw write, no compression frame.
		if err := block.NewWriter(s.rev).Write(s.w, logBlock); err != nil {
			return err
		}

		eventsBlock := block.New()
		eventName := column.NewString()
		eventName.Append("SelectedRows")
		eventsBlock.AddColumn("name", eventName)

		if err := s.w.WriteUVarint(protocol.ServerProfileEvents); err != nil {
			return err
		}
		if err := s.w.WriteString(""); err != nil {
			return err
		}
		if err := block.NewWriter(s.rev).Write(s.w, eventsBlock); err != nil {
			return err
		}

		if err := s.sendDataBlock(numberBlock(0, 5)); err != nil {
			return err
		}
		return s.sendEndOfStream()
	})
	defer client.Close()

	var logLines, eventNames []string
	res, err := client.Do(context.Background(), Query{
		Body: "SELECT number FROM system.numbers LIMIT 5",
		OnServerLog: func(b *block.Block) {
			col, err := b.ColumnByName("text")
			require.NoError(t, err)
			logLines = append(logLines, col.Value(0).(string))
		},
		OnProfileEvents: func(b *block.Block) {
			col, err := b.ColumnByName("name")
			require.NoError(t, err)
			eventNames = append(eventNames, col.Value(0).(string))
		},
	})
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"reading 42 marks"}, logLines)
	assert.Equal(t, []string{"SelectedRows"}, eventNames)
	assert.Equal(t, 5, res.Rows())
}

func TestUnknownPacketIsFatal(t *testing.T) {
	client, done := startSession(t, testRevision, nil, func(s *mockServer) error {
		if _, err := s.readQuery(); err != nil {
			return err
		}
		return s.w.WriteUVarint(99)
	})

	_, err := client.Do(context.Background(), Query{Body: "SELECT 1"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnexpectedPacket))
	require.NoError(t, <-done)

	// The connection is closed; further use fails fast.
	require.Error(t, client.Ping(context.Background()))
}

func TestFailoverToSecondEndpoint(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	dials := 0
	opt := &Options{
		Addr: []string{"dead:9000", "alive:9000"},
		DialContext: func(_ context.Context, addr string) (net.Conn, error) {
			dials++
			if addr == "dead:9000" {
				return nil, errors.New(ErrClosed, "connection refused")
			}
			return clientEnd, nil
		},
	}

	go func() {
		defer serverEnd.Close()
		s := newMockServer(serverEnd, testRevision)
		if err := s.acceptHandshake(); err != nil {
			return
		}
		if err := s.expectPacket(protocol.ClientPing); err != nil {
			return
		}
		s.w.WriteUVarint(protocol.ServerPong)
	}()

	client, err := Connect(context.Background(), opt)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 2, dials)
	require.NoError(t, client.Ping(context.Background()))
}

package chnative

import (
	"fmt"
	"os"
	"strings"

	"github.com/gear6io/chnative/block"
	"github.com/gear6io/chnative/protocol"
)

const defaultClientName = protocol.ClientName

// ServerInfo is the identity negotiated at Hello.
type ServerInfo struct {
	Name         string
	VersionMajor uint64
	VersionMinor uint64
	VersionPatch uint64
	Revision     uint64
	Timezone     string
	DisplayName  string
}

func (s ServerInfo) String() string {
	return fmt.Sprintf("%s %d.%d.%d (revision %d)",
		s.Name, s.VersionMajor, s.VersionMinor, s.VersionPatch, s.Revision)
}

// Progress reports rows and bytes the server has processed so far.
type Progress struct {
	Rows         uint64
	Bytes        uint64
	TotalRows    uint64
	WrittenRows  uint64
	WrittenBytes uint64
}

// ProfileInfo reports query execution statistics.
type ProfileInfo struct {
	Rows                      uint64
	Blocks                    uint64
	Bytes                     uint64
	AppliedLimit              bool
	RowsBeforeLimit           uint64
	CalculatedRowsBeforeLimit bool
}

// Exception is a server-originated error with an optional nested chain.
type Exception struct {
	Code       int32
	Name       string
	Message    string
	StackTrace string
	Nested     *Exception
}

func (e *Exception) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d): %s", e.Name, e.Code, e.Message)
	for n := e.Nested; n != nil; n = n.Nested {
		fmt.Fprintf(&sb, "; caused by %s (%d): %s", n.Name, n.Code, n.Message)
	}
	return sb.String()
}

// TracingContext carries a W3C trace context into the query packet.
type TracingContext struct {
	TraceIDHigh uint64
	TraceIDLow  uint64
	SpanID      uint64
	TraceState  string
	TraceFlags  uint8
}

// Enabled reports whether the context carries a trace.
func (t *TracingContext) Enabled() bool {
	return t != nil && (t.TraceIDHigh != 0 || t.TraceIDLow != 0)
}

// Query is one statement plus its per-query options and callbacks.
// Callbacks run in packet-arrival order on the session goroutine; OnData
// returning false sends a Cancel and drains the stream.
type Query struct {
	Body    string
	QueryID string

	Settings   map[string]string
	Parameters map[string]string
	Tracing    *TracingContext

	OnProgress      func(Progress)
	OnProfile       func(ProfileInfo)
	OnProfileEvents func(*block.Block)
	OnServerLog     func(*block.Block)
	OnData          func(*block.Block) bool
	OnException     func(*Exception)
}

// Result accumulates the blocks of a completed query.
type Result struct {
	Blocks   []*block.Block
	Totals   *block.Block
	Extremes *block.Block
	Progress Progress
	Profile  ProfileInfo
}

// Rows sums the row counts of all data blocks.
func (r *Result) Rows() int {
	total := 0
	for _, b := range r.Blocks {
		total += b.Rows()
	}
	return total
}

// clientInfo is the caller identity serialized into every query packet.
type clientInfo struct {
	initialUser    string
	initialQueryID string
	initialAddress string
	osUser         string
	hostname       string
	clientName     string
}

func newClientInfo(clientName string) clientInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	osUser := os.Getenv("USER")
	if osUser == "" {
		osUser = "default"
	}
	return clientInfo{
		initialAddress: "0.0.0.0:0",
		osUser:         osUser,
		hostname:       hostname,
		clientName:     clientName,
	}
}

// Package protocol defines the packet codes, query stages, and revision
// gates of the native TCP protocol. The constants are part of the wire
// contract and must match the reference server byte for byte.
package protocol

import "fmt"

// Client packet codes (client -> server).
const (
	ClientHello  uint64 = 0
	ClientQuery  uint64 = 1
	ClientData   uint64 = 2
	ClientCancel uint64 = 3
	ClientPing   uint64 = 4
)

// Server packet codes (server -> client).
const (
	ServerHello                uint64 = 0
	ServerData                 uint64 = 1
	ServerException            uint64 = 2
	ServerProgress             uint64 = 3
	ServerPong                 uint64 = 4
	ServerEndOfStream          uint64 = 5
	ServerProfileInfo          uint64 = 6
	ServerTotals               uint64 = 7
	ServerExtremes             uint64 = 8
	ServerTablesStatusResponse uint64 = 9
	ServerLog                  uint64 = 10
	ServerTableColumns         uint64 = 11
	ServerPartUUIDs            uint64 = 12
	ServerReadTaskRequest      uint64 = 13
	ServerProfileEvents        uint64 = 14
)

// ServerPacketName returns a human-readable name for a server packet code.
func ServerPacketName(code uint64) string {
	switch code {
	case ServerHello:
		return "Hello"
	case ServerData:
		return "Data"
	case ServerException:
		return "Exception"
	case ServerProgress:
		return "Progress"
	case ServerPong:
		return "Pong"
	case ServerEndOfStream:
		return "EndOfStream"
	case ServerProfileInfo:
		return "ProfileInfo"
	case ServerTotals:
		return "Totals"
	case ServerExtremes:
		return "Extremes"
	case ServerTablesStatusResponse:
		return "TablesStatusResponse"
	case ServerLog:
		return "Log"
	case ServerTableColumns:
		return "TableColumns"
	case ServerPartUUIDs:
		return "PartUUIDs"
	case ServerReadTaskRequest:
		return "ReadTaskRequest"
	case ServerProfileEvents:
		return "ProfileEvents"
	default:
		return fmt.Sprintf("Unknown(%d)", code)
	}
}

// Query processing stage. Only Complete is ever sent by this client.
const StageComplete uint64 = 2

// Compression flag inside the Query packet.
const (
	CompressDisable uint64 = 0
	CompressEnable  uint64 = 1
)

// Query kind inside ClientInfo.
const (
	QueryKindInitial uint64 = 1
)

// Interface type inside ClientInfo.
const (
	InterfaceTCP uint8 = 1
)

// Revision gates. A field is present on the wire only when the negotiated
// revision is at or above its gate.
const (
	DBMSMinRevisionWithTemporaryTables             uint64 = 50264
	DBMSMinRevisionWithTotalRowsInProgress         uint64 = 51554
	DBMSMinRevisionWithBlockInfo                   uint64 = 51903
	DBMSMinRevisionWithClientInfo                  uint64 = 54032
	DBMSMinRevisionWithServerTimezone              uint64 = 54058
	DBMSMinRevisionWithQuotaKeyInClientInfo        uint64 = 54060
	DBMSMinRevisionWithServerDisplayName           uint64 = 54372
	DBMSMinRevisionWithVersionPatch                uint64 = 54401
	DBMSMinRevisionWithClientWriteInfo             uint64 = 54405
	DBMSMinRevisionWithSettingsSerializedAsStrings uint64 = 54429
	DBMSMinRevisionWithInterserverSecret           uint64 = 54441
	DBMSMinRevisionWithOpenTelemetry               uint64 = 54442
	DBMSMinRevisionWithDistributedDepth            uint64 = 54448
	DBMSMinRevisionWithInitialQueryStartTime       uint64 = 54449
	DBMSMinRevisionWithParallelReplicas            uint64 = 54453
	DBMSMinRevisionWithCustomSerialization         uint64 = 54454
	DBMSMinProtocolVersionWithAddendum             uint64 = 54458
	DBMSMinProtocolVersionWithParameters           uint64 = 54459
)

// Client identity advertised during the handshake.
const (
	ClientName                = "chnative"
	ClientVersionMajor uint64 = 1
	ClientVersionMinor uint64 = 0
	ClientVersionPatch uint64 = 0
	ClientRevision     uint64 = DBMSMinProtocolVersionWithParameters
)

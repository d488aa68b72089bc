package realtime

// Tables carried on the change stream. Keys are row identifiers: PC id,
// session id, detected IP address, device token value.
const (
	TablePCs          = "pcs"
	TableSessions     = "sessions"
	TableDetectedIPs  = "detected_ips"
	TableDeviceTokens = "device_tokens"
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// Event is a change notification. It deliberately carries no row payload:
// subscribers re-read the authoritative row, so duplicated, replayed or
// out-of-order events are harmless.
type Event struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	Key    string `json:"key"`
}

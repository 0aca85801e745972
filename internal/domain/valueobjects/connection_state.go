package valueobjects

// ConnectionState represents the voice connection state of a guild session
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

// String returns the string representation
func (s ConnectionState) String() string {
	return string(s)
}

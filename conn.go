package server

// Conn is the transport surface a session needs from a connected peer. The
// websocket adapter in internal/net/ws implements it; tests substitute
// in-memory fakes so roster and arbitration logic stay transport-free.
type Conn interface {
	Send(data []byte) error
	Close() error
}

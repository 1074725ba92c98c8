// Package transport owns the WebSocket connection to the feed server.
//
// Dial performs the handshake. The returned Conn is a lazy, non-restartable
// stream of frames: Next yields text, binary, control and error frames in
// arrival order and io.EOF once the peer has closed or the connection broke.
// Conn has a single reader; Close may be called from any goroutine and is
// the only write the client ever makes.
package transport

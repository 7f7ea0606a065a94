// Package wsconn provides a channel over a single WebSocket connection, so a
// session can run between processes on different hosts.
//
// Each message travels as one JSON text frame.
package wsconn

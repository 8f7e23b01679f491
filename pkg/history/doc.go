// Package history provides navigation backends for pkg/relay.
//
// Memory is an in-process stack, useful for tests and CLI tools. Socket
// shares one location with browsers over WebSocket; its client frames are
// delivered through a Loop, the single goroutine every store and relay call
// runs on.
package history

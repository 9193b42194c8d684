package endpoint

import "io"

// nullEndpoint is the placeholder backend used before a real one is known.
// It reports closed from construction, reads yield EOF immediately, and
// writes/close are no-ops.
type nullEndpoint struct{}

// Null is the distinguished null endpoint. Use Present to test for its
// absence the way the source used Endpoint's truthiness.
var Null Endpoint = nullEndpoint{}

func (nullEndpoint) Read(int) ([]byte, error) { return nil, io.EOF }
func (nullEndpoint) Write([]byte) error       { return nil }
func (nullEndpoint) Drain() error             { return nil }
func (nullEndpoint) FlushWrite([]byte) error  { return nil }
func (nullEndpoint) Close() error             { return nil }
func (nullEndpoint) Closed() bool             { return true }
func (nullEndpoint) ExtraInfo(string) any     { return nil }
func (nullEndpoint) Unblock()                 {}

// Present reports whether e is a real, connected endpoint rather than the
// null placeholder — Go's stand-in for Python's `if backend:` truthiness
// check on NullEndpoint.
func Present(e Endpoint) bool {
	_, isNull := e.(nullEndpoint)

	return e != nil && !isNull
}

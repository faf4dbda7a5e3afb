package audit

import "testing"

func TestNoopSatisfiesSink(t *testing.T) {
	var sink Sink = Noop{}
	// Must not panic.
	sink.RecordLogin("alice", "127.0.0.1")
	sink.RecordLogout("alice", nil)
}

package dedup

import "testing"

func TestKeyShape(t *testing.T) {
	if got, want := key("cfg1", "evt_9"), "fh:dedup:cfg1:evt_9"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

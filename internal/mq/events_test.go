package mq

import "testing"

func TestRoutingKeyRoundTrip(t *testing.T) {
	for _, collection := range Collections() {
		for _, op := range []string{OpInsert, OpUpdate, OpDelete} {
			key := RoutingKey(collection, op)
			gotCollection, gotOp, err := SplitRoutingKey(key)
			if err != nil {
				t.Fatalf("SplitRoutingKey(%q): %v", key, err)
			}
			if gotCollection != collection || gotOp != op {
				t.Errorf("SplitRoutingKey(%q) = (%q, %q)", key, gotCollection, gotOp)
			}
		}
	}
}

func TestSplitRoutingKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "deals", ".insert", "deals.", "deals.upsert"} {
		if _, _, err := SplitRoutingKey(key); err == nil {
			t.Errorf("SplitRoutingKey(%q): want error", key)
		}
	}
}

package util

import (
	"strings"
	"testing"
)

func TestOwnerPrefix(t *testing.T) {
	guest := OwnerPrefix("guest:abc")
	if guest != OwnerPrefix("guest:abc") {
		t.Fatalf("prefix not stable")
	}
	if guest == OwnerPrefix("guest:abd") {
		t.Fatalf("distinct users share a prefix")
	}
	if len(guest) != ownerPrefixLen || strings.ContainsAny(guest, ":/\\.") {
		t.Fatalf("prefix = %q", guest)
	}
}

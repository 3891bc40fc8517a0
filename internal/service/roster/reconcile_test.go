package roster

import (
	"fmt"
	"testing"
)

func TestDiff(t *testing.T) {
	d := Diff(
		[]string{"a@x.com", "b@x.com"},
		[]string{"b@x.com", "c@x.com"},
	)
	if len(d.Additions) != 1 || d.Additions[0] != "a@x.com" {
		t.Fatalf("expected exactly one addition a@x.com, got %v", d.Additions)
	}
	if len(d.Removals) != 1 || d.Removals[0] != "c@x.com" {
		t.Fatalf("expected exactly one removal c@x.com, got %v", d.Removals)
	}
}

func TestDiffCanonicalizes(t *testing.T) {
	d := Diff(
		[]string{"  A@X.com ", "a@x.com", "B@x.COM"},
		[]string{"a@x.com"},
	)
	if len(d.Additions) != 1 || d.Additions[0] != "b@x.com" {
		t.Fatalf("case and whitespace variants should collapse, got additions %v", d.Additions)
	}
	if len(d.Removals) != 0 {
		t.Fatalf("expected no removals, got %v", d.Removals)
	}
}

func TestDiffIdempotent(t *testing.T) {
	current := []string{"a@x.com", "b@x.com", "c@x.com"}
	if d := Diff(current, current); !d.Empty() {
		t.Fatalf("unchanged set should diff to an empty delta, got %+v", d)
	}
}

func TestDiffBlanksIgnored(t *testing.T) {
	d := Diff([]string{"", "  ", "a@x.com"}, nil)
	if len(d.Additions) != 1 {
		t.Fatalf("blank keys should be ignored, got %v", d.Additions)
	}
}

func TestBatchesRemovalsFirst(t *testing.T) {
	var d Delta
	for i := 0; i < 150; i++ {
		d.Removals = append(d.Removals, fmt.Sprintf("old%d@x.com", i))
	}
	for i := 0; i < 30; i++ {
		d.Additions = append(d.Additions, fmt.Sprintf("new%d@x.com", i))
	}

	batches := Batches(d)
	if len(batches) != 2 {
		t.Fatalf("180 ops should chunk into 2 batches, got %d", len(batches))
	}
	if n := len(batches[0].Removals) + len(batches[0].Additions); n != MaxBatchOps {
		t.Fatalf("first batch should be full, got %d ops", n)
	}
	if len(batches[0].Additions) != 0 {
		t.Fatal("no addition may be scheduled while removals remain")
	}
	if len(batches[1].Removals) != 50 || len(batches[1].Additions) != 30 {
		t.Fatalf("second batch should carry 50 removals then 30 additions, got %d/%d",
			len(batches[1].Removals), len(batches[1].Additions))
	}
}

func TestBatchesEmptyDelta(t *testing.T) {
	if b := Batches(Delta{}); len(b) != 0 {
		t.Fatalf("empty delta should produce no batches, got %d", len(b))
	}
}

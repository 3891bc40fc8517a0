package roster

import "strings"

// MaxBatchOps is the hard ceiling on operations per atomic batch, set by the
// row store's transaction limit. Deltas larger than this are chunked, never
// widened into a single transaction.
const MaxBatchOps = 100

// Delta is the outcome of diffing a desired membership set against the
// stored one. Keys are canonical (trimmed, lowercased) and de-duplicated.
type Delta struct {
	Additions []string
	Removals  []string
}

// Empty reports whether the delta applies no change.
func (d Delta) Empty() bool {
	return len(d.Additions) == 0 && len(d.Removals) == 0
}

// Canonical normalizes a membership key for comparison: surrounding
// whitespace dropped, case folded.
func Canonical(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Diff computes the membership delta from current to desired. Both inputs
// are canonicalized and de-duplicated first; blank keys are ignored. Keys in
// both sets produce no operation, so an unchanged desired set diffs to an
// empty delta.
func Diff(desired, current []string) Delta {
	want := canonicalSet(desired)
	have := canonicalSet(current)

	var d Delta
	for _, k := range want.ordered {
		if !have.member[k] {
			d.Additions = append(d.Additions, k)
		}
	}
	for _, k := range have.ordered {
		if !want.member[k] {
			d.Removals = append(d.Removals, k)
		}
	}
	return d
}

// Batch is one atomic chunk of a reconciliation. The store applies the
// removals and additions of a batch in a single transaction, removals first.
type Batch struct {
	Removals  []string
	Additions []string
}

// Batches splits a delta into atomic chunks of at most MaxBatchOps
// operations each. All removals are scheduled before any addition, so a key
// leaving and re-entering the set in one reconciliation is deleted before it
// is re-inserted.
func Batches(d Delta) []Batch {
	var out []Batch
	room := 0
	for _, k := range d.Removals {
		if room == 0 {
			out = append(out, Batch{})
			room = MaxBatchOps
		}
		b := &out[len(out)-1]
		b.Removals = append(b.Removals, k)
		room--
	}
	for _, k := range d.Additions {
		if room == 0 {
			out = append(out, Batch{})
			room = MaxBatchOps
		}
		b := &out[len(out)-1]
		b.Additions = append(b.Additions, k)
		room--
	}
	return out
}

type keySet struct {
	member  map[string]bool
	ordered []string
}

func canonicalSet(keys []string) keySet {
	s := keySet{member: make(map[string]bool, len(keys))}
	for _, k := range keys {
		k = Canonical(k)
		if k == "" || s.member[k] {
			continue
		}
		s.member[k] = true
		s.ordered = append(s.ordered, k)
	}
	return s
}

// Package roster manages the membership sets of a tenant: the recipient
// list a newsletter is sent to, and the user roster that may write it.
//
// Bulk membership changes never mutate rows one at a time. The desired set
// is diffed against the stored set (case-insensitive, trimmed, de-duplicated)
// and the delta is committed as atomic batches of at most MaxBatchOps
// operations, removals ahead of additions so a key deleted and re-added in
// the same reconciliation never collides with itself. Reconciling the same
// desired set twice in a row applies nothing the second time.
package roster

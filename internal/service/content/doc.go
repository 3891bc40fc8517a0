// Package content implements the article and newsletter lifecycle: create,
// edit, submit, approve, reorder, move and delete, under optimistic
// concurrency.
//
// Two rules hold at every commit boundary:
//
//  1. A write against an article or newsletter that carries a stale version
//     token fails with domain.ErrVersionConflict and applies nothing.
//  2. An issue's article order, read as a set, equals the set of the issue's
//     non-intro article short names. Every operation that could change either
//     side validates the post-operation order before committing.
//
// Moving an article between issues is a saga: an atomic article-partition
// transaction relocates the row, an atomic newsletter-partition transaction
// rewrites both order lists, and image blobs follow best-effort. A crash
// between the two transactions leaves a stale order list that the validator
// flags on the next write; a crash during image relocation leaks blobs under
// the old key but never loses them.
package content

// Package sops drives the external sops executable over a directory tree
// and keeps an ignore file in step with the encrypted patterns.
//
// # Batches
//
// Files are collected by extension or exact name, then handed to a pool
// of at most eight concurrent sops invocations. A failing file never stops
// the batch; every file gets an outcome and the batch reports them all.
// A batch in which some files failed returns a *errors.BatchError
// matching ErrPartialBatchFailure, or ErrBatchFailed when none succeeded.
//
// # Ignore File
//
// After an encrypt batch with at least one success, the plaintext
// patterns are written to a delimited block of the ignore file. Content
// outside the block is never touched, and syncing the same patterns twice
// leaves the file byte-identical.
package sops

// Package sentinel manages the per-project stores under {base}/guarded.
//
// A sentinel directory is named "{sanitized project name}-{uuid}" and holds
// the relocated entry file (dot.envrc), the environments/ subtree and any
// file moved there by guard-one at its project-relative path. confguard
// creates sentinels but never deletes them.
package sentinel

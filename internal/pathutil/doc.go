// Package pathutil resolves, validates and commits filesystem paths for
// confguard.
//
// # Link Targets
//
// ComputeLinkTarget returns either the canonical absolute target or the
// shortest relative path from the link's canonical parent directory. Every
// computed target is resolved again from the link location and compared
// with the real target before it is used; a mismatch is reported as
// errors.ErrLinkTargetMismatch instead of creating a possibly wrong link.
//
// CreateLink commits a link atomically: the symlink is created under a
// temporary name next to its final location and renamed over it, so a
// reader never observes a missing entry file.
//
// # Containment
//
// AssertContained compares canonical paths segment by segment, so
// /work/app-old is not considered inside /work/app.
//
// # Home-based Paths
//
// Paths stored in guard sections are written relative to $HOME when they
// live below it, which keeps sections valid across machines that share a
// home layout.
package pathutil

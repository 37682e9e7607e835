// Package guard moves a project's entry file into its sentinel and back.
//
// The state of a project is never stored. Inspect derives it from the
// filesystem every time it is called:
//
//   - Unguarded: .envrc is a regular file without a guard section, or absent.
//   - Guarded: .envrc is a link to a file whose guard section records the
//     project as its source directory.
//   - Broken: anything else, e.g. a dangling link, an unreadable section,
//     a section owned by another project, or a regular file that still
//     carries a section.
//
// Every Engine operation may be run twice in a row. The second run leaves
// the same observable state, apart from the section timestamp.
//
// Operations assume exclusive access to the project and its sentinel.
// Running two of them on the same project concurrently is not supported.
package guard

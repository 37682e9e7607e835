// Package configs resolves confguard's settings and loads the encryption
// pattern set.
//
// Everything lives below one base directory:
//
//   - guarded/: one sentinel directory per project
//   - confguard.toml: the encryption pattern set
//   - audit.jsonl: the audit log
//   - .gitignore: ignore file holding the confguard block
//
// # Base Directory
//
// The base directory is resolved once by the CLI and passed down as part
// of a Settings value. The first non-empty source wins:
//
//  1. the --base-dir flag
//  2. the CONFGUARD_BASE_DIR environment variable
//  3. $XDG_DATA_HOME/confguard
//  4. ~/.local/share/confguard
//
// # Pattern Set
//
// confguard.toml names the GPG key passed to sops and the file extensions
// and names selected for encryption and decryption:
//
//	gpg_key = "60A4127E82E218297532FAB6D750B66AE08F3B90"
//	file_extensions_enc = ["env", "envrc"]
//	file_names_enc = ["dot.envrc"]
//	file_extensions_dec = ["enc"]
//	file_names_dec = []
//	exclude = ["**/node_modules/**"]
//
// Extensions are written without the leading dot. exclude holds doublestar
// globs matched against paths relative to the scanned directory.
package configs

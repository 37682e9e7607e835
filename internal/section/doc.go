// Package section reads and writes the guard section: the delimited block
// of metadata appended to a relocated entry file.
//
// A section looks like this:
//
//	#------------------------------- confguard start --------------------------------
//	# config.relative = true
//	# config.version = 3
//	# state.sentinel = 'myproj-5b7c...'
//	# state.timestamp = '2026-10-17T09:12:33.120Z'
//	# state.sourceDir = '$HOME/dev/myproj'
//	export SOPS_PATH=$HOME/.local/share/confguard/guarded/myproj-5b7c...
//	dotenv $SOPS_PATH/environments/local.env
//	#-------------------------------- confguard end ---------------------------------
//
// Field lines are "# key = value". The export and dotenv lines are derived
// from the sentinel directory and regenerated on every write. Field lines
// this package does not know are kept, in order, when a section is
// rewritten.
//
// Upsert and Strip are inverse operations: stripping a section from the
// output of Upsert yields the original content byte for byte.
package section

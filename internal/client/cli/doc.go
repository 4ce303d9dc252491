// Package cli implements rk, the reconkeeper command-line client.
//
// Every command shares one App: the control-plane client, the object store
// (public HTTP or S3), the Prometheus registry and, opened on first use, the
// upload-session journal. Execute builds the cobra tree, runs one command
// and releases the App. rk shell runs the same tree once per input line.
//
//	rk upload item <file|dir>... [--parent ID]
//	rk upload clip <file|dir>...
//	rk archive bundle <id> [--with-matches]
//	rk archive item <id>
//	rk plan bundle|item <id>
//	rk keys item|bundle|clip|match <id>
//	rk orphans list|abort|remote|prune
//	rk shell
package cli

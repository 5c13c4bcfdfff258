// Command dspace-client is an example DSpace REST client.
//
// Settings come from, in increasing priority: a YAML file (-config),
// DSPACE_* environment variables and flags. The password can be provided via:
//   - --password flag (least secure, visible in process list)
//   - DSPACE_PASSWORD environment variable (recommended)
//   - stdin prompt (if neither flag nor env var is set)
//
// With --email, every command logs in first and logs out when it is done.
// "login" prints a token that later invocations can reuse with --token.
//
// Examples:
//
//	export DSPACE_URL=https://demo.dspace.org/rest
//	dspace-client status
//	dspace-client communities top
//	dspace-client --email admin@example.org items find dc.subject golang
//	dspace-client --token "$(dspace-client --email admin@example.org login)" bitstreams download 42 paper.pdf
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

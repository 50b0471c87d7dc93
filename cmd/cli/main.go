// buginspector - source code bug detection and tracking
//
// buginspector scans source files for suspicious patterns and records the
// findings in a bug store that can be queried, updated and reported on.
package main

import (
	"os"

	"github.com/ccollicutt/buginspector/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// Command sira-client is the managed-node helper invoked by the control
// node via `sudo -n /opt/sira/bin/sira-client` with no arguments: it reads
// one frame from standard input and runs the action it describes
// (spec.md §4.D, §6).
package main

import (
	"os"

	"github.com/edev/sira/internal/clientrun"
)

func main() {
	os.Exit(clientrun.Run(os.Stdin, os.Stdout, os.Stderr))
}

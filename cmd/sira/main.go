// Command sira is the control-node CLI: it reads one or more manifest
// files and runs their actions across managed hosts over SSH (spec.md §6).
package main

import "github.com/edev/sira/internal/cli"

func main() {
	cli.Execute()
}

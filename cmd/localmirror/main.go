// localmirror clones resources from a live AWS account into a local,
// API-compatible emulator.
//
// # Usage
//
//	localmirror up                          Start the emulator and wait for it
//	localmirror migrate --all               Mirror every supported resource kind
//	localmirror migrate --kinds tables,functions --filter orders
//	localmirror migrate --all --copy-data   Also copy table items and databases
//
// Without --all or --kinds, migrate shows an interactive selection.
package main

import "github.com/acksell/localmirror/internal/cli"

func main() {
	cli.Execute()
}

// Command taskflow plans and runs batches of capability calls, either once
// from a task file or as an HTTP service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Command stagectl runs the room staging pipeline from the command line:
// photo normalization, mask export, scripted placement, and the cleanup and
// render round trips against the collaborator service.
package main

import (
	"fmt"
	"os"

	"room-stager/internal/logger"
)

func main() {
	defer logger.Close()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command roster generates, refines and exports workforce rosters from a
// dataset file.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Command tombstone-migrate prints or applies model DDL.
package main

import (
	"fmt"
	"os"

	"tombstone/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

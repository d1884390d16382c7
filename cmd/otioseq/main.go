// Command otioseq conforms editorial timelines onto nested level sequences.
package main

import (
	"os"

	"github.com/roach88/otioseq/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(cli.ReportError(root, err))
	}
}

// Command dapseq serves SQLite tables as streamed DAP Sequence responses.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dapseq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

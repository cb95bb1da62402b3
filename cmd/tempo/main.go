// Command tempo compiles tempo programs to typed IR.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tempo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tempo:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

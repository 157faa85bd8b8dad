// Command accountable tracks build and avoid habits from the command line and
// runs the daily rollover as a daemon.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := execute(newRootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

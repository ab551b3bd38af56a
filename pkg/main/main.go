package main

import (
	"fmt"
	"os"

	"climate-analyzer/pkg/integrate"

	"github.com/innerr/ticat/pkg/ticat"
)

func main() {
	tc := ticat.NewTiCat()
	if err := integrate.Integrate(tc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tc.RunCli(os.Args[1:]...)
}

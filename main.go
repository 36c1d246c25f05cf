// qshape - star-shape statistics for SPARQL query logs.
//
// qshape decomposes every query of a log into its alternative basic graph
// patterns and counts the star shapes they form, so that recurring access
// patterns can be found across millions of queries.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/qshape-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

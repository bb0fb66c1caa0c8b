// Command products-parser parses supplier product catalogs and counts unique
// product combinations.
package main

import (
	"fmt"
	"os"

	"github.com/pranayb2773/products-parser/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

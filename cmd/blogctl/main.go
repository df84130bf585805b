// cmd/blogctl/main.go
//
// Command-line client for the blog API.

package main

import (
	"fmt"
	"os"

	"github.com/robalobadob/goblog/cmd/blogctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

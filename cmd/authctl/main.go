// Package main provides the entry point for authctl, the terminal client of
// the blog's auth backend.
package main

import (
	"fmt"
	"os"

	"github.com/jrsteele09/go-blog-auth/internal/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

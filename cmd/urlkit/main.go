// Command urlkit reads and rewrites URL query strings from the shell.
package main

import (
	"os"

	"github.com/dalemusser/urlkit/internal/urlcli"
)

func main() {
	os.Exit(urlcli.Run("urlkit", os.Args[1:], os.Stdout, os.Stderr))
}

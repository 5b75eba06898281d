package main

import (
	"os"

	"github.com/seismo-labs/jane/internal/adapters/driving/cli"
)

// version is overridden at build time through ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}

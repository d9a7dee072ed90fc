package main

import (
	"os"

	"github.com/mariov96/session-continuity-framework-sub000/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}

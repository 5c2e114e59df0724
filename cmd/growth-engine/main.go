package main

import (
	"os"

	"github.com/growth-engine/growth-engine/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

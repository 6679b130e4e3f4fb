package main

import (
	"os"

	"github.com/D-LUFFY89/snapsrt/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

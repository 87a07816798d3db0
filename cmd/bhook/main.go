package main

import (
	"os"

	"github.com/bizlink-systems/bizlink-webhooks/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

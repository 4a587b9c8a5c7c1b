package main

import (
	"os"

	"murdermystery/cmd/mysteryctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

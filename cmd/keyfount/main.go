package main

import (
	"os"

	"keyfount/cmd/keyfount/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

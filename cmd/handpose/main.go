package main

import (
	"os"

	"github.com/ayusman/handpose/cmd/handpose/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

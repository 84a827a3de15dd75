package main

import (
	"os"

	"github.com/justmike1/mentionbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

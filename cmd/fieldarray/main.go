package main

import (
	"os"

	"github.com/LynnColeArt/gudafem/cmd/fieldarray/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

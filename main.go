package main

import (
	"os"

	"github.com/seedscout/seedscout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

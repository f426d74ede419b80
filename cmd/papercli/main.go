package main

import (
	"os"

	"github.com/mind-engage/mindengage-assembly/cmd/papercli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

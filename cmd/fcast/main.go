package main

import (
	"os"

	"github.com/fcastdev/fcast-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

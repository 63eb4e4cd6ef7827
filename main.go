package main

import (
	"os"

	"github.com/knowbase/kb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

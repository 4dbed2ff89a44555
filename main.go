package main

import (
	"os"

	"github.com/ndelcourt/optidispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

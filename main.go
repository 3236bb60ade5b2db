package main

import (
	"os"

	"github.com/miekki-jerry/transtamps/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

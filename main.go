package main

import (
	"os"

	"github.com/penwyp/go-meegle-timesheet/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

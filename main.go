package main

import (
	"os"

	"sprintloop/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

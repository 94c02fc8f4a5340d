package main

import (
	"os"

	"github.com/interview-prep/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"cancer-diagnosis/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

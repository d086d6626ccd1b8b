package main

import (
	"os"

	"github.com/viniciusth/dedupe/internal/command"

	"github.com/nuclio/errors"
)

func run() error {
	return command.NewRootCommandeer().Execute()
}

func main() {
	if err := run(); err != nil {
		errors.PrintErrorStack(os.Stderr, err, 5)

		os.Exit(1)
	}
}

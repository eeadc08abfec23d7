package main

import (
	"errors"
	"os"

	cmd "github.com/techjoec/driftbuster/cmd/driftbuster"
	"github.com/techjoec/driftbuster/internal/apperr"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, apperr.ErrCancelled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

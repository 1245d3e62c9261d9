package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/cli"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

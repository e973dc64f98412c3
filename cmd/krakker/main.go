package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Nikonell/krakker-backend/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

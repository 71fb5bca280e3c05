package main

import (
	"context"
	"fmt"
	"os"

	"ContentGenerator/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "contentgen:", err)
		os.Exit(1)
	}
}

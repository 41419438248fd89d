package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"RigorScore/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// main.go - Einstiegspunkt des vaeflow CLI
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vaeflow/vaeflow/cmd"
	_ "github.com/vaeflow/vaeflow/network/networks"
)

func main() {
	if err := cmd.NewCLI().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

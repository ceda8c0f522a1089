package main

import (
	"fmt"
	"os"

	"github.com/fatxtool/fatx/cmd/cmd"
)

func main() {
	if err := cmd.Execute(cmd.BinaryMode()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(16)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/Emyrk/profreport/cmd"
)

func main() {
	err := cmd.New().RootCmd().Invoke().WithOS().Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"os"

	digestcmd "github.com/telekom/paper-digest/pkg/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	return digestcmd.Execute(digestcmd.DefaultConfig(), args)
}

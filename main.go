package main

import (
	"github.com/cr0sh/lc3p2atest/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/sharely/questkit/cmd/questctl/cmd"
)

func main() {
	cmd.Execute()
}

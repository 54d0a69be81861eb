package main

import (
	"github.com/yutopp/scratchpad/cmd/scratchpad/cli"
)

func main() {
	cli.Execute()
}

package main

import "github.com/rzbill/stockroom/pkg/cli/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/docmodelhq/corpus/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/agentic-research/dirimport/cmd"

func main() {
	cmd.Execute()
}

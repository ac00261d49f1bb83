package main

import "github.com/opencode-ai/querycat/internal/cli"

func main() {
	cli.Execute()
}

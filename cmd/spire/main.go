package main

import "github.com/spirequest/spire/internal/cli"

func main() {
	cli.Execute()
}

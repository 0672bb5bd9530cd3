package main

import "github.com/relab/experimenttools/internal/cli"

func main() {
	cli.Execute()
}

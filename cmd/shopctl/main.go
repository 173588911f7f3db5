package main

import "github.com/mcoot/gameshop/internal/cli"

func main() {
	cli.Execute()
}

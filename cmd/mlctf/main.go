package main

import "github.com/mcoot/mlctf/internal/cli"

func main() {
	cli.Execute()
}

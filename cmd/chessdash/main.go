package main

import "github.com/vytor/chessdash/internal/cli"

func main() {
	cli.Execute()
}

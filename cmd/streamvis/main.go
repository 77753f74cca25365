package main

import "github.com/vnykmshr/streamvis/internal/cli"

func main() {
	cli.Execute()
}

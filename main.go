package main

import "github.com/NalediMadlopha/citrus/cmd"

func main() {
	cmd.Execute()
}

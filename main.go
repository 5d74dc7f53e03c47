package main

import "github.com/sctg-development/photoacoustic-core/cmd"

func main() {
	cmd.Execute()
}

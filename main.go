package main

import "github.com/naka-gawa/contrib-tally/cmd"

func main() {
	cmd.Execute()
}

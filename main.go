package main

import "github.com/gridhail/ridesim/cmd"

func main() {
	cmd.Execute()
}

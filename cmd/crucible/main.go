package main

import "github.com/OpenTraceLab/OpenTraceCrucible/cmd/crucible/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/loamdb/loam/cmd/loam/commands"

func main() {
	commands.Execute()
}

package main

import "github.com/propstack/reconcilo/cmd"

func main() {
	cmd.Execute()
}

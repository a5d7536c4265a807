package main

import "github.com/kbediako/examgate/cmd"

func main() {
	cmd.Execute()
}

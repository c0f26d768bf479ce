package main

import "github.com/qobs-build/mkall/cmd"

func main() {
	cmd.Execute()
}

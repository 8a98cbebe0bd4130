package main

import "github.com/notargets/weakform/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/grapnel-io/grapnel/grapnel/cmd"

func main() {
	cmd.Execute()
}

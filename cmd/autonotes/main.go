package main

import "autonotes/cmd/autonotes/cmd"

func main() {
	cmd.Execute()
}

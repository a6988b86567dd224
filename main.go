package main

import "tripletex-bridge/cmd"

func main() {
	cmd.Execute()
}

package main

import "brandpatrol/cmd"

func main() {
	cmd.Execute()
}

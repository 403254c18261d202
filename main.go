package main

import "pixie/cmd"

func main() {
	cmd.Execute()
}

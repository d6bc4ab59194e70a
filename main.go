package main

import "covermosaic/cmd"

func main() {
	cmd.Execute()
}

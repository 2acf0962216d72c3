package main

import "elmdiag/cmd"

func main() {
	cmd.Execute()
}

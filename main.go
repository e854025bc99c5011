package main

import "module-loader/cmd"

func main() {
	cmd.Execute()
}

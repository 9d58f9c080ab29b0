package main

import "menuscript/cmd"

func main() {
	cmd.Execute()
}

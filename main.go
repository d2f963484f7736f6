package main

import "github.com/iksnae/docs-chat/cmd"

func main() {
	cmd.Execute()
}

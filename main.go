package main

import "github.com/messagely/apiserver/cmd"

func main() {
	cmd.Execute()
}

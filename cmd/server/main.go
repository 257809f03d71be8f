package main

import "github.com/healthhive/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}

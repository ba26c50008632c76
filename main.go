package main

import (
	"cassette/cmd"
)

func main() {
	cmd.Execute()
}

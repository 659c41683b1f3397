package main

import (
	"Audiotheque/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/tracelabs/evmtracer/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/dyike/DivGo/internal/cli"
)

func main() {
	cli.Run()
}

package main

import (
	"github.com/guajirawind/windops/internal/cli"
)

func main() {
	cli.Execute()
}

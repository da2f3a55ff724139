package main

import "github.com/fkcurrie/matrixportal-golang/internal/cli"

func main() {
	cli.Execute()
}

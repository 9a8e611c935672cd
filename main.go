package main

import "github.com/mincpu/uartload/cmd"

func main() {
	cmd.Execute()
}

package main

import "steg/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/capguard/capguard/internal/cli"

func main() {
	cli.Execute()
}

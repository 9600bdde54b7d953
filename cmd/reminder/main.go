package main

import "github.com/ogulcanaydogan/credit-reminder/internal/cli"

func main() {
	cli.Execute()
}

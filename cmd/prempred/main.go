package main

import "github.com/utakatalp/prem-predictor/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}

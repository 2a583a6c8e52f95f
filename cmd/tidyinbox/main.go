package main

import "github.com/tidyinbox/tidyinbox/internal/cli"

func main() {
	cli.Execute()
}

package main

import "trainingcrm/internal/cli"

func main() {
	cli.Execute()
}

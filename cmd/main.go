package main

import (
	"os"

	graphiti "github.com/temporalmesh/graphiti/cmd/graphiti"
)

func main() {
	if err := graphiti.Execute(); err != nil {
		os.Exit(1)
	}
}

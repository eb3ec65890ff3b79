package main

import "fmt"

// Overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func versionCommand() {
	fmt.Println("modelbak " + version)
}

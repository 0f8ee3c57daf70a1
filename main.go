// Package main is entrypoint for the application
package main

import "relay/cmd"

func main() {
	cmd.Run()
}

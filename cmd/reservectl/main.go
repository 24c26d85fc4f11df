package main

import "stablecoin-core/cmd/reservectl/cmd"

func main() {
	cmd.Execute()
}

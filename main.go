package main

import "supplier-sync/cmd"

func main() {
	cmd.Execute()
}

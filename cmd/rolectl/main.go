package main

import "github.com/terraconstructs/rolegate/cmd/rolectl/cmd"

func main() {
	cmd.Execute()
}

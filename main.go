package main

import "github.com/alekseisolovev/databot/cmd"

func main() {
	cmd.Execute()
}

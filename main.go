package main

import "github.com/TFMV/cognilink/cmd"

func main() {
	cmd.Execute()
}

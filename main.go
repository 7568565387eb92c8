package main

import "github.com/chrisdamba/bentoledger/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/KaramelBytes/bpreport/cmd"

func main() {
	cmd.Execute()
}

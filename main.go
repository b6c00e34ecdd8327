package main

import "github.com/notargets/msrapprox/cmd"

func main() {
	cmd.Execute()
}

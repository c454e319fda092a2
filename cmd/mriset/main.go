package main

import "github.com/neuroimg/mriset/cmd/mriset/cmd"

func main() {
	cmd.Execute()
}

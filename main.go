package main

import "github.com/khanhnv2901/sitescan/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}

package main

import "github.com/theirongolddev/finview/cmd"

func main() {
	cmd.Execute()
}

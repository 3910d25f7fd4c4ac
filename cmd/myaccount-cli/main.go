package main

import "github.com/dangun/myaccount/cmd/myaccount-cli/cmd"

func main() {
	cmd.Execute()
}

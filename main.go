package main

import "github.com/timvw/assistant-pane/cmd"

func main() {
	cmd.Execute()
}

package main

import "notesapi/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/twiced-technology-gmbh/studyplanner/cmd"

func main() {
	cmd.Execute()
}

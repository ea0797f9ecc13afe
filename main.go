package main

import "github.com/Trailblaze-work/loopcast/cmd"

func main() {
	cmd.Execute()
}

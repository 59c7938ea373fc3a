package main

import "github.com/frahmantamala/jobly/cmd"

func main() {
	cmd.Execute()
}

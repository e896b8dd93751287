package main

import "github.com/frahmantamala/genops/cmd"

func main() {
	cmd.Execute()
}

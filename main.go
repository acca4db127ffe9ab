package main

import "github.com/deptex/depscore/cmd"

func main() {
	cmd.Execute()
}

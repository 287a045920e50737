package main

import cmd "github.com/rohmanhakim/result-finder/internal/cli"

func main() {
	cmd.Execute()
}

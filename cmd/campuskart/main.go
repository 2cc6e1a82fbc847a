package main

import "github.com/campuskart/campuskart/internal/cmd"

func main() {
	cmd.Execute()
}

// The main package for the tracklog executable.
package main

import "github.com/JakeFAU/tracklog/cmd"

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}

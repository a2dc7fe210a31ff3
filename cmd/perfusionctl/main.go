// Command perfusionctl manages perfusion patients and runs the perfusion
// calculators from the command line.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// Command netsim runs simulated Ethernet networks described by topology files.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/JamesHertz/the-internet-simulator/netsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

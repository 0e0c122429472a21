// Command devicelink is a terminal front end for a DeviceLink server.
package main

import (
	"os"
)

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

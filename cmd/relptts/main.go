package main

import (
	"fmt"
	"os"
)

func main() {
	err := NewRootCmd().Execute()

	shutdownErr := shutdownTracer()
	if shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}

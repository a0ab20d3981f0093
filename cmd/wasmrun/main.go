package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if err == nil {
		os.Exit(0)
	}

	var ec *exitCodeError
	if errors.As(err, &ec) {
		fmt.Fprintln(os.Stderr, ec.Error())
		os.Exit(ec.code)
	}

	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(2)
}

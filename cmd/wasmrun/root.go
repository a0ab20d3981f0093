package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "wasmrun",
	Short:         "wasmrun decodes and runs WebAssembly MVP modules against a wast2json conformance suite",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

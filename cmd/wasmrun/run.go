package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vertexdlt/wasmcore/testsuite"
)

// exitCodeError carries the process exit code a command failure should
// produce, per spec §6: 0 on success, 1 on any failing assertion, 2 on an
// infrastructure error (missing wast2json, unreadable file, malformed JSON).
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func infraError(err error) error { return &exitCodeError{code: 2, err: err} }
func assertionError(err error) error { return &exitCodeError{code: 1, err: err} }

var (
	jsonOutDir string
	verbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run <file.wast>",
	Short: "Run one wast2json conformance suite against the runtime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wastPath := args[0]

		d := &testsuite.Driver{}
		res, err := d.RunFile(wastPath, jsonOutDir)
		if err != nil {
			return infraError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d total, %d passed, %d failed, %d skipped\n",
			res.SourceFilename, res.Total, res.Passed, res.Failed, res.Skipped)

		if res.Failed > 0 {
			if verbose {
				for _, f := range res.Failures {
					fmt.Fprintf(cmd.OutOrStdout(), "  line %d (%s): %s\n", f.Line, f.Type, f.Message)
				}
			}
			return assertionError(fmt.Errorf("%d assertion(s) failed", res.Failed))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&jsonOutDir, "out-dir", "", "directory for wast2json output (default: alongside the .wast file)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each failing assertion")
}

// Package main provides the datascout CLI: an operator tool that finds
// where a value lives, scanning either every table/column of a MySQL server
// or a directory of web-server access logs, and exporting matches with a
// companion run log.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dukaforge/datascout/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration mistakes to the user-error code and everything
// else (transport failures, filesystem trouble) to the system-error code.
func exitCode(err error) int {
	if errors.Is(err, types.ErrMissingTerm) || errors.Is(err, types.ErrBadFormat) {
		return exitUserError
	}
	return exitSysError
}

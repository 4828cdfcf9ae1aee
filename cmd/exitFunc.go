package cmd

import "os"

// exitFunc is os.Exit in production; tests replace it to capture exit codes.
var exitFunc = os.Exit

// Package cmd implements the citrus-ssh command-line interface.
//
// The package wires the cobra subcommands (send, run, verify) to the
// sshclient endpoint. send performs a single request/response cycle; run
// executes a YAML test plan of send and receive steps, checks the
// expectations attached to each receive, and writes a YAML report; verify
// validates a plan without connecting anywhere.
//
// Start with init.go to see how flags, environment variables and the
// optional config file are bound through viper, then runCmd.go for the plan
// execution flow.
package cmd

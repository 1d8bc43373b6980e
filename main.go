// Package main is the entry point for the a11yfix CLI.
package main

import "a11yfix.dev/pkg/a11yfix/cmd"

func main() {
	cmd.Execute()
}

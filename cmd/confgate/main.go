// Package main provides the confgate CLI for configuration compliance
// scanning.
package main

func main() {
	Execute()
}

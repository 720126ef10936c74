// Package main is the entry point for the basemodel CLI.
package main

func main() {
	Execute()
}

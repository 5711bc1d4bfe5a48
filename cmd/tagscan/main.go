// Package main provides the entry point for the tagscan CLI.
//
// tagscan fetches web pages, counts occurrences of an HTML tag, and
// tracks aggregate usage statistics per domain.
//
// Usage:
//
//	tagscan count <url> --tag img
//	tagscan serve
//	tagscan stats <domain> --tag img
//
// See --help for all available options.
package main

// main is the entry point for tagscan.
func main() {
	Execute()
}

// Package main provides the entry point for the Iron Gate detection service.
//
// Usage:
//
//	irongate serve [--config FILE]
//	irongate scan FILE [--format json|markdown] [--pseudonymize]
//	irongate version
package main

func main() {
	Execute()
}

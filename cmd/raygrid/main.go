// Package main provides the entry point for the raygrid CLI.
//
// raygrid solves grid-based ray-casting puzzles: the guard patrol board
// (cells visited, cells where one obstacle causes a loop) and the antenna
// map (antinodes and harmonic antinodes).
//
// Usage:
//
//	raygrid patrol <file...>
//	raygrid antenna <file...>
//	raygrid history [file]
//
// See --help for all available options.
package main

// main is the entry point for raygrid.
func main() {
	Execute()
}

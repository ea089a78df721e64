// Command elastichash-demo builds a small Map and prints its length, the
// trivial entry point described by spec.md's Non-goals (no benchmark
// harness, no real CLI — just a construction smoke test), grounded on
// _examples/original_source/src/main.rs ("Created elastic hashing with
// size N").
package main

import (
	"fmt"

	"github.com/go-elastic/elastichash"
)

func main() {
	const capacity = 10
	m := elastichash.NewDefault[int64, int64](capacity)
	fmt.Printf("created elastic hash map requested capacity %d, len %d\n", capacity, m.Len())
}

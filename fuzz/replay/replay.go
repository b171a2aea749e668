package main

import (
	"os"

	fuzzer "github.com/sparse-roi/go-bitmask-ntree/fuzz"
)

func init() {
	fuzzer.Debug = true
}

func main() {
	fname := os.Args[1]
	data, err := os.ReadFile(fname)
	if err != nil {
		panic(err)
	}
	fuzzer.Fuzz(data)
}

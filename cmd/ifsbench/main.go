// Package main is the entry point for the ifsbench command line tool.
package main

import (
	"os"

	"github.com/ecmwf-ifs/ifsbench/cmd/ifsbench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

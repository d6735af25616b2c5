// skate - document serialization CLI tool
//
// Usage:
//
//	skate fmt [--indent N] [--ascii] [--compact] [file]   Reformat JSON
//	skate check [file]                                    Validate JSON
//	skate convert --from F --to T [file]                  Convert between formats
//	skate stream encode [--sid N] [--crc] [--compress] [file]
//	skate stream decode [file]                            Frames -> JSON lines
//	skate version                                         Print version info
//
// If no file is given, or the file is "-", input is read from stdin.
//
// Every flag can also be set from the environment (SKATE_MAX_DEPTH=64),
// from .env or .env.local in the working directory, or from skate.toml.
package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "skate: %v\n", err)
		os.Exit(1)
	}
}

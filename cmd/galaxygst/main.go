// Command galaxygst records ghost traces from Super Mario Galaxy 2 running in
// Dolphin and inspects recorded GST files.
package main

import "os"

// BuildDate and Version can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const appName = "galaxygst"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

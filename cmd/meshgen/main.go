// Command meshgen generates parametric solid meshes from flags, scene
// scripts or YAML batch files and writes them as STL or JSON.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

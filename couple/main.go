// Command couple runs participants of a coupled simulation.
package main

import "github.com/ArminHamedi/precice/couple/cmd"

func main() {
	cmd.Execute()
}

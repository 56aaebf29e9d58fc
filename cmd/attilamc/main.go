// Command attilamc runs a GDDR3 memory channel controller under synthetic
// traffic and reports its counters.
package main

import "github.com/sarchlab/attila/cmd/attilamc/cmd"

func main() {
	cmd.Execute()
}

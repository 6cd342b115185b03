// Command ttsh runs the tecnoter.io node shell: the SSH, telnet and HTTP
// hosts, a local console, and a one-shot dispatch bridge.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

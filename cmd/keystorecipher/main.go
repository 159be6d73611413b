// Command keystorecipher encrypts short strings under per-alias data keys
// protected by the operating system keystore.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

package keystore

import "runtime"

// zeroize overwrites a byte slice with zeros so key material and serialized
// private keys do not linger in memory after use.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

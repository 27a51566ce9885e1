package roomcode

import (
	"crypto/rand"
	"math/big"
)

// alphabet excludes 0/O, 1/I and lowercase so codes survive being read aloud
// or typed from a phone screen.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of generated codes, e.g. "AB12CD".
const Length = 6

// Generate returns a random room code. Codes are opaque to the coordinator;
// collisions merely mean two pairs share a room, which the operator flow
// makes unlikely enough at this length.
func Generate() string {
	buf := make([]byte, Length)
	for i := range buf {
		buf[i] = alphabet[randomIndex(len(alphabet))]
	}
	return string(buf)
}

// randomIndex returns a cryptographically secure random index below max.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand failing means the platform is broken.
		panic(err)
	}
	return int(n.Int64())
}

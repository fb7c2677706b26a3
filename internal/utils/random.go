package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DisplayNameSuffix returns a random four digit suffix (1000-9999) used
// to de-collide auto-provisioned display names.
func DisplayNameSuffix() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken;
		// a fixed suffix still yields a usable display name.
		return "1000"
	}
	return fmt.Sprintf("%d", n.Int64()+1000)
}

package checkout

// Package checkout holds the order-writing primitives shared by the checkout
// service and its handlers.

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateOrderNumber builds a public order number from the current time in
// milliseconds plus a random suffix. Uniqueness is probabilistic, not
// enforced here; the orders table carries the unique constraint. The result
// is 26 characters, the Webpay buy_order maximum.
func GenerateOrderNumber() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return fmt.Sprintf("EMR-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

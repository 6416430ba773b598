package utils

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// NkeyOptionFromSeedText builds the NATS nkey auth option from the text of a user seed.
func NkeyOptionFromSeedText(seed string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(strings.TrimSpace(seed)))
	if err != nil {
		return nil, err
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, err
	}
	if !nkeys.IsValidPublicUserKey(pub) {
		return nil, errors.New("nats nkey must be a user seed")
	}

	return nats.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}

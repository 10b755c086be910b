package hdwallet

import (
	"crypto/sha256"
	"encoding/hex"
)

// SecondPasswordHashOpts is the struct given to HashSecondPassword method
type SecondPasswordHashOpts struct {
	SharedKey      string
	SecondPassword string
	Iterations     int
}

// HashSecondPassword returns the hex encoded digest stored in the wallet to
// validate a second password without decrypting any key. The digest is
// sha256(sharedKey|password) re-hashed Iterations times.
func HashSecondPassword(opts SecondPasswordHashOpts) (string, error) {
	if len(opts.SecondPassword) <= 0 {
		return "", ErrNullPassphrase
	}
	if opts.Iterations < 0 {
		return "", ErrInvalidIterations
	}
	iterations := opts.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}

	digest := sha256.Sum256([]byte(opts.SharedKey + opts.SecondPassword))
	for i := 1; i < iterations; i++ {
		digest = sha256.Sum256(digest[:])
	}
	return hex.EncodeToString(digest[:]), nil
}

// DoubleEncryptOpts is the struct given to DoubleEncrypt and DoubleDecrypt
// methods
type DoubleEncryptOpts struct {
	Text           string
	SharedKey      string
	SecondPassword string
	Iterations     int
}

func (o DoubleEncryptOpts) passphrase() string {
	return o.SharedKey + o.SecondPassword
}

// DoubleEncrypt encrypts private key material with a key derived from the
// shared key and the second password.
func DoubleEncrypt(opts DoubleEncryptOpts) (string, error) {
	if len(opts.SecondPassword) <= 0 {
		return "", ErrNullPassphrase
	}
	return Encrypt(EncryptOpts{
		PlainText:  opts.Text,
		Passphrase: opts.passphrase(),
		Iterations: opts.Iterations,
	})
}

// DoubleDecrypt reverts DoubleEncrypt.
func DoubleDecrypt(opts DoubleEncryptOpts) (string, error) {
	if len(opts.SecondPassword) <= 0 {
		return "", ErrNullPassphrase
	}
	return Decrypt(DecryptOpts{
		CypherText: opts.Text,
		Passphrase: opts.passphrase(),
		Iterations: opts.Iterations,
	})
}

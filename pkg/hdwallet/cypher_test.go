package hdwallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	plaintext := "super secret message"
	passphrase := "supersecurekey"

	for _, iterations := range []int{0, 10, DefaultIterations} {
		cyphertext, err := Encrypt(EncryptOpts{
			PlainText:  plaintext,
			Passphrase: passphrase,
			Iterations: iterations,
		})
		require.NoError(t, err)

		revealedtext, err := Decrypt(DecryptOpts{
			CypherText: cyphertext,
			Passphrase: passphrase,
			Iterations: iterations,
		})
		require.NoError(t, err)
		assert.Equal(t, plaintext, revealedtext)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	cyphertext, err := Encrypt(EncryptOpts{
		PlainText:  "super secret message",
		Passphrase: "supersecurekey",
		Iterations: 10,
	})
	require.NoError(t, err)

	_, err = Decrypt(DecryptOpts{
		CypherText: cyphertext,
		Passphrase: "wrongkey",
		Iterations: 10,
	})
	require.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = Decrypt(DecryptOpts{
		CypherText: cyphertext,
		Passphrase: "supersecurekey",
		Iterations: 11,
	})
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestFailingEncrypt(t *testing.T) {
	tests := []struct {
		opts EncryptOpts
		err  error
	}{
		{
			opts: EncryptOpts{
				PlainText:  "",
				Passphrase: "supersecurekey",
			},
			err: ErrNullPlainText,
		},
		{
			opts: EncryptOpts{
				PlainText:  "super secret message",
				Passphrase: "",
			},
			err: ErrNullPassphrase,
		},
		{
			opts: EncryptOpts{
				PlainText:  "super secret message",
				Passphrase: "supersecurekey",
				Iterations: -1,
			},
			err: ErrInvalidIterations,
		},
	}
	for _, tt := range tests {
		_, err := Encrypt(tt.opts)
		assert.Equal(t, tt.err, err)
	}
}

func TestFailingDecrypt(t *testing.T) {
	tests := []struct {
		opts DecryptOpts
		err  error
	}{
		{
			opts: DecryptOpts{
				CypherText: "",
				Passphrase: "supersecurekey",
			},
			err: ErrNullCypherText,
		},
		{
			opts: DecryptOpts{
				CypherText: "supersecretmessage",
				Passphrase: "supersecurekey",
			},
			err: ErrInvalidCypherText,
		},
		{
			opts: DecryptOpts{
				CypherText: "c2hvcnQ=",
				Passphrase: "supersecurekey",
			},
			err: ErrInvalidCypherText,
		},
		{
			opts: DecryptOpts{
				CypherText: "c2hvcnQ=",
				Passphrase: "",
			},
			err: ErrNullPassphrase,
		},
	}
	for _, tt := range tests {
		_, err := Decrypt(tt.opts)
		assert.Equal(t, tt.err, err)
	}
}

func TestDoubleEncryption(t *testing.T) {
	opts := DoubleEncryptOpts{
		Text:           "L1aW4aubDFB7yfras2S1mN3bqg9nwySY8nkoLmJebSLD5BWv3ENZ",
		SharedKey:      "d2e1c9b3-4b2d-4a57-9f3c-6a7e0a3f1b20",
		SecondPassword: "second",
		Iterations:     10,
	}
	cypher, err := DoubleEncrypt(opts)
	require.NoError(t, err)
	require.NotEqual(t, opts.Text, cypher)

	revealed, err := DoubleDecrypt(DoubleEncryptOpts{
		Text:           cypher,
		SharedKey:      opts.SharedKey,
		SecondPassword: opts.SecondPassword,
		Iterations:     opts.Iterations,
	})
	require.NoError(t, err)
	require.Equal(t, opts.Text, revealed)

	_, err = DoubleDecrypt(DoubleEncryptOpts{
		Text:           cypher,
		SharedKey:      opts.SharedKey,
		SecondPassword: "wrong",
		Iterations:     opts.Iterations,
	})
	require.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = DoubleEncrypt(DoubleEncryptOpts{Text: opts.Text})
	require.ErrorIs(t, err, ErrNullPassphrase)
}

func TestHashSecondPassword(t *testing.T) {
	opts := SecondPasswordHashOpts{
		SharedKey:      "sharedkey",
		SecondPassword: "second",
		Iterations:     10,
	}
	hash, err := HashSecondPassword(opts)
	require.NoError(t, err)
	require.Len(t, hash, 64)

	again, err := HashSecondPassword(opts)
	require.NoError(t, err)
	require.Equal(t, hash, again)

	opts.SecondPassword = "other"
	other, err := HashSecondPassword(opts)
	require.NoError(t, err)
	require.NotEqual(t, hash, other)

	opts.SecondPassword = ""
	_, err = HashSecondPassword(opts)
	require.ErrorIs(t, err, ErrNullPassphrase)
}

package hdwallet

import (
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	// MaxHardenedValue is the highest account number that still fits a
	// hardened BIP32 index
	MaxHardenedValue = math.MaxUint32 - hdkeychain.HardenedKeyStart

	purpose  uint32 = 44
	coinType uint32 = 0

	masterSymbol  = "m"
	accountSymbol = "M"
	hardenedMark  = "'"
)

// DerivationPath is a list of BIP32 child indexes, hardened ones included
// with the HardenedKeyStart offset.
type DerivationPath []uint32

// AccountDerivationPath returns m/44'/0'/account'.
func AccountDerivationPath(account uint32) (DerivationPath, error) {
	if account > MaxHardenedValue {
		return nil, ErrOutOfRangeAccount
	}
	return DerivationPath{
		hdkeychain.HardenedKeyStart + purpose,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + account,
	}, nil
}

// ParseAccountPath parses a path relative to an account key, as reported by
// the wallet backend: M/<chain>/<index>. Chain must be ReceiveChain or
// ChangeChain and neither step can be hardened.
func ParseAccountPath(str string) (chain, index uint32, err error) {
	steps := strings.Split(str, "/")
	if len(steps) != 3 || steps[0] != accountSymbol {
		return 0, 0, ErrMalformedDerivationPath
	}

	values := make([]uint32, 0, 2)
	for _, step := range steps[1:] {
		v, err := strconv.ParseUint(step, 10, 31)
		if err != nil {
			return 0, 0, ErrInvalidDerivationPath
		}
		values = append(values, uint32(v))
	}

	chain, index = values[0], values[1]
	if chain != ReceiveChain && chain != ChangeChain {
		return 0, 0, ErrInvalidChain
	}
	return chain, index, nil
}

func (p DerivationPath) String() string {
	if len(p) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(masterSymbol)
	for _, index := range p {
		b.WriteString("/")
		if index >= hdkeychain.HardenedKeyStart {
			b.WriteString(strconv.FormatUint(uint64(index-hdkeychain.HardenedKeyStart), 10))
			b.WriteString(hardenedMark)
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return b.String()
}

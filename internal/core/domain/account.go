package domain

import (
	"sort"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

// AddAddressLabel reserves the given receive index with a label. A label
// already set for the index is replaced.
func (a *Account) AddAddressLabel(index int, label string) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	for i, l := range a.AddressLabels {
		if l.Index == index {
			a.AddressLabels[i].Label = label
			return nil
		}
	}
	a.AddressLabels = append(a.AddressLabels, AddressLabel{index, label})
	sort.SliceStable(a.AddressLabels, func(i, j int) bool {
		return a.AddressLabels[i].Index < a.AddressLabels[j].Index
	})
	return nil
}

// HasAddressLabel returns whether the given receive index is reserved
func (a *Account) HasAddressLabel(index int) bool {
	for _, l := range a.AddressLabels {
		if l.Index == index {
			return true
		}
	}
	return false
}

// ReservedIndexes returns the reserved receive indexes in ascending order
func (a *Account) ReservedIndexes() []int {
	indexes := make([]int, 0, len(a.AddressLabels))
	for _, l := range a.AddressLabels {
		indexes = append(indexes, l.Index)
	}
	sort.Ints(indexes)
	return indexes
}

// ReceiveAddressAt derives the receive address at the given index
func (a *Account) ReceiveAddressAt(net *chaincfg.Params, index int) (string, error) {
	return a.addressAt(net, hdwallet.ReceiveChain, index)
}

// ChangeAddressAt derives the change address at the given index
func (a *Account) ChangeAddressAt(net *chaincfg.Params, index int) (string, error) {
	return a.addressAt(net, hdwallet.ChangeChain, index)
}

// ReceiveAddresses derives the receive addresses in range [from, to)
func (a *Account) ReceiveAddresses(net *chaincfg.Params, from, to int) ([]string, error) {
	if err := checkIndex(from); err != nil {
		return nil, err
	}
	if to < from || int64(to) > hdkeychain.HardenedKeyStart {
		return nil, hdwallet.ErrOutOfRangeIndex
	}
	return hdwallet.DeriveAddresses(hdwallet.DeriveAddressesOpts{
		ExtendedKey: a.Xpub,
		Chain:       hdwallet.ReceiveChain,
		From:        uint32(from),
		To:          uint32(to),
		Network:     net,
	})
}

func (a *Account) addressAt(net *chaincfg.Params, chain uint32, index int) (string, error) {
	if err := checkIndex(index); err != nil {
		return "", err
	}
	return hdwallet.DeriveAddress(hdwallet.DeriveAddressOpts{
		ExtendedKey: a.Xpub,
		Chain:       chain,
		Index:       uint32(index),
		Network:     net,
	})
}

// checkIndex rejects indexes that do not fit a non-hardened BIP32 step
func checkIndex(index int) error {
	if index < 0 || int64(index) >= hdkeychain.HardenedKeyStart {
		return hdwallet.ErrOutOfRangeIndex
	}
	return nil
}

func (a *Account) clone() *Account {
	clone := *a
	if a.AddressLabels != nil {
		clone.AddressLabels = make([]AddressLabel, len(a.AddressLabels))
		copy(clone.AddressLabels, a.AddressLabels)
	}
	return &clone
}

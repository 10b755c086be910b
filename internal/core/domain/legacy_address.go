package domain

// FilterLegacyAddresses returns, in order, the addresses of the given list
// tagged with tag
func FilterLegacyAddresses(tag Tag, list []*LegacyAddress) []string {
	addresses := make([]string, 0)
	for _, l := range list {
		if l.Tag == tag {
			addresses = append(addresses, l.Address)
		}
	}
	return addresses
}

// IsWatchOnly returns whether the address has no private key
func (l *LegacyAddress) IsWatchOnly() bool {
	return l.PrivateKey == ""
}

func (l *LegacyAddress) validate() error {
	if l == nil || l.Address == "" {
		return ErrNullAddress
	}
	if !l.Tag.isValid() {
		return ErrInvalidTag
	}
	return nil
}

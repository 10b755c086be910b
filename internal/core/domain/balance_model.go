package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const coinPrecision = 8

// Balance of an address, an xpub or a whole wallet, in satoshi
type Balance struct {
	FinalBalance  uint64 `json:"final_balance"`
	TxCount       uint64 `json:"n_tx"`
	TotalReceived uint64 `json:"total_received"`
}

// ToCoin returns the final balance in coin units
func (b Balance) ToCoin() decimal.Decimal {
	return SatsToCoin(b.FinalBalance)
}

// SatsToCoin converts an amount of satoshi to coin units
func SatsToCoin(sats uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(sats), -coinPrecision)
}

// AddressBalance pairs an address with its balance
type AddressBalance struct {
	Address string
	Balance Balance
}

// Direction of a transaction from the wallet point of view
type Direction string

const (
	DirectionReceived    Direction = "RECEIVED"
	DirectionSent        Direction = "SENT"
	DirectionTransferred Direction = "TRANSFERRED"
)

// TransactionSummary is a wallet transaction as listed by the multiaddr
// service
type TransactionSummary struct {
	Hash          string
	Direction     Direction
	Total         uint64
	Fee           uint64
	Time          int64
	Confirmations uint32
	InputsMap     map[string]uint64
	OutputsMap    map[string]uint64
}

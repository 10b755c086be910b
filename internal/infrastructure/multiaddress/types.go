package multiaddress

type multiAddrResponse struct {
	Addresses []addressInfo `json:"addresses"`
	Txs       []tx          `json:"txs"`
	Info      info          `json:"info"`
}

type addressInfo struct {
	Address       string `json:"address"`
	FinalBalance  uint64 `json:"final_balance"`
	TxCount       uint64 `json:"n_tx"`
	TotalReceived uint64 `json:"total_received"`
	AccountIndex  int    `json:"account_index"`
	ChangeIndex   int    `json:"change_index"`
}

type tx struct {
	Hash        string  `json:"hash"`
	Time        int64   `json:"time"`
	BlockHeight int     `json:"block_height"`
	Fee         uint64  `json:"fee"`
	Inputs      []input `json:"inputs"`
	Out         []out   `json:"out"`
}

type input struct {
	PrevOut *out `json:"prev_out"`
}

type out struct {
	Addr  string `json:"addr"`
	Value uint64 `json:"value"`
	Xpub  *xpub  `json:"xpub,omitempty"`
}

func (o out) xpub() string {
	if o.Xpub == nil {
		return ""
	}
	return o.Xpub.M
}

type xpub struct {
	M    string `json:"m"`
	Path string `json:"path"`
}

type info struct {
	LatestBlock struct {
		Height int `json:"height"`
	} `json:"latest_block"`
}

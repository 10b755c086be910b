// Package multiaddress tracks the next unused address index of every xpub of
// a wallet and lists wallet transactions through the multiaddr endpoint.
package multiaddress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	log "github.com/sirupsen/logrus"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
	"github.com/vaultsync/payloadd/pkg/httputil"
	"github.com/vaultsync/payloadd/pkg/stats"
	"go.uber.org/ratelimit"
)

const (
	multiAddrPath = "/multiaddr"
	// DefaultRateLimit is the max number of requests per second
	DefaultRateLimit = 5

	addressSeparator = "|"
)

var (
	// ErrMissingURL ...
	ErrMissingURL = errors.New("missing multiaddr api url")
)

// TrackerOpts is the struct given to NewTracker
type TrackerOpts struct {
	URL       string
	APICode   string
	Timeout   time.Duration
	RateLimit int
}

// Tracker is an in-memory ports.AddressIndexTracker whose cursors move
// forward with the data returned by the multiaddr endpoint.
type Tracker struct {
	lock          *sync.RWMutex
	nextReceive   map[string]int
	nextChange    map[string]int
	xpubByAddress map[string]string

	endpoint string
	apiCode  string
	client   *httputil.Client
	limiter  ratelimit.Limiter
}

var _ ports.AddressIndexTracker = (*Tracker)(nil)

// NewTracker returns a Tracker with no known xpub.
func NewTracker(opts TrackerOpts) (*Tracker, error) {
	if opts.URL == "" {
		return nil, ErrMissingURL
	}
	if _, err := url.Parse(opts.URL); err != nil {
		return nil, fmt.Errorf("invalid multiaddr api url: %s", err)
	}
	rate := opts.RateLimit
	if rate <= 0 {
		rate = DefaultRateLimit
	}

	return &Tracker{
		lock:          &sync.RWMutex{},
		nextReceive:   map[string]int{},
		nextChange:    map[string]int{},
		xpubByAddress: map[string]string{},
		endpoint:      strings.TrimSuffix(opts.URL, "/") + multiAddrPath,
		apiCode:       opts.APICode,
		client:        httputil.NewClient(opts.Timeout),
		limiter:       ratelimit.New(rate),
	}, nil
}

// NextReceiveAddressIndex returns the first index not lower than the
// cursor of the xpub that is not reserved.
func (t *Tracker) NextReceiveAddressIndex(xpub string, reserved []int) int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return skipReserved(t.nextReceive[xpub], reserved)
}

func (t *Tracker) NextChangeAddressIndex(xpub string) int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.nextChange[xpub]
}

// IncrementNextReceiveAddress moves the cursor past the current next
// receive index.
func (t *Tracker) IncrementNextReceiveAddress(xpub string, reserved []int) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.nextReceive[xpub] = skipReserved(t.nextReceive[xpub], reserved) + 1
}

func (t *Tracker) IncrementNextChangeAddress(xpub string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.nextChange[xpub]++
}

func (t *Tracker) XpubFromAddress(address string) fn.Option[string] {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if xpub, ok := t.xpubByAddress[address]; ok {
		return fn.Some(xpub)
	}
	return fn.None[string]()
}

func (t *Tracker) IsOwnHDAddress(address string) bool {
	return t.XpubFromAddress(address).IsSome()
}

// Refresh updates the cursors of the given xpubs without listing any
// transaction.
func (t *Tracker) Refresh(ctx context.Context, xpubs []string) error {
	_, err := t.fetch(ctx, xpubs, 0, 0)
	return err
}

func (t *Tracker) AccountTransactions(
	ctx context.Context, all, onlyShow []string, xpub string,
	limit, offset, startingBlock int,
) ([]domain.TransactionSummary, error) {
	res, err := t.fetch(ctx, all, limit, offset)
	if err != nil {
		return nil, err
	}

	own := all
	if len(onlyShow) > 0 {
		own = onlyShow
	} else if xpub != "" {
		own = []string{xpub}
	}
	ownSet := make(map[string]struct{}, len(own))
	for _, v := range own {
		ownSet[v] = struct{}{}
	}

	latest := res.Info.LatestBlock.Height
	summaries := make([]domain.TransactionSummary, 0, len(res.Txs))
	for _, tx := range res.Txs {
		if startingBlock > 0 && tx.BlockHeight > 0 && tx.BlockHeight < startingBlock {
			continue
		}
		summary, ok := summarize(tx, ownSet, latest)
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (t *Tracker) fetch(
	ctx context.Context, active []string, limit, offset int,
) (*multiAddrResponse, error) {
	query := url.Values{
		"active": {strings.Join(active, addressSeparator)},
		"offset": {strconv.Itoa(offset)},
	}
	if limit > 0 {
		query.Set("n", strconv.Itoa(limit))
	}
	if t.apiCode != "" {
		query.Set("api_code", t.apiCode)
	}

	t.limiter.Take()
	status, body, err := t.client.Get(ctx, t.endpoint, query, nil)
	if err != nil {
		stats.RemoteRequestsTotal.WithLabelValues("multiaddr", "get", "error").Inc()
		return nil, err
	}
	if status != http.StatusOK {
		stats.RemoteRequestsTotal.WithLabelValues("multiaddr", "get", "failure").Inc()
		return nil, fmt.Errorf("multiaddr: %d - %s", status, body)
	}
	stats.RemoteRequestsTotal.WithLabelValues("multiaddr", "get", "success").Inc()

	var res multiAddrResponse
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("multiaddr: %s", err)
	}
	t.update(&res)
	return &res, nil
}

// update never moves a cursor backward.
func (t *Tracker) update(res *multiAddrResponse) {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, a := range res.Addresses {
		if t.nextReceive[a.Address] < a.AccountIndex {
			t.nextReceive[a.Address] = a.AccountIndex
		}
		if t.nextChange[a.Address] < a.ChangeIndex {
			t.nextChange[a.Address] = a.ChangeIndex
		}
	}

	for _, tx := range res.Txs {
		outs := make([]out, 0, len(tx.Inputs)+len(tx.Out))
		for _, in := range tx.Inputs {
			if in.PrevOut != nil {
				outs = append(outs, *in.PrevOut)
			}
		}
		outs = append(outs, tx.Out...)

		for _, o := range outs {
			if o.Xpub == nil || o.Xpub.M == "" || o.Addr == "" {
				continue
			}
			t.xpubByAddress[o.Addr] = o.Xpub.M

			chain, idx, err := hdwallet.ParseAccountPath(o.Xpub.Path)
			if err != nil {
				log.Debugf("multiaddr: skipping unknown path %s", o.Xpub.Path)
				continue
			}
			cursors := t.nextReceive
			if chain == hdwallet.ChangeChain {
				cursors = t.nextChange
			}
			if next := int(idx) + 1; cursors[o.Xpub.M] < next {
				cursors[o.Xpub.M] = next
			}
		}
	}
}

func summarize(
	tx tx, own map[string]struct{}, latestHeight int,
) (domain.TransactionSummary, bool) {
	isOwn := func(o out) bool {
		if _, ok := own[o.Addr]; ok {
			return true
		}
		_, ok := own[o.xpub()]
		return ok
	}

	summary := domain.TransactionSummary{
		Hash:       tx.Hash,
		Fee:        tx.Fee,
		Time:       tx.Time,
		InputsMap:  map[string]uint64{},
		OutputsMap: map[string]uint64{},
	}
	if tx.BlockHeight > 0 && latestHeight >= tx.BlockHeight {
		summary.Confirmations = uint32(latestHeight - tx.BlockHeight + 1)
	}

	var ownIn, ownOut uint64
	allOutputsOwn := len(tx.Out) > 0
	for _, in := range tx.Inputs {
		if in.PrevOut == nil {
			continue
		}
		if isOwn(*in.PrevOut) {
			ownIn += in.PrevOut.Value
			summary.InputsMap[in.PrevOut.Addr] += in.PrevOut.Value
		}
	}
	for _, o := range tx.Out {
		if isOwn(o) {
			ownOut += o.Value
			summary.OutputsMap[o.Addr] += o.Value
			continue
		}
		allOutputsOwn = false
	}

	switch {
	case ownIn == 0 && ownOut == 0:
		return summary, false
	case ownIn == 0:
		summary.Direction = domain.DirectionReceived
		summary.Total = ownOut
	case allOutputsOwn:
		summary.Direction = domain.DirectionTransferred
		summary.Total = ownOut
	default:
		summary.Direction = domain.DirectionSent
		summary.Total = subtract(ownIn, ownOut+tx.Fee)
		for _, o := range tx.Out {
			if !isOwn(o) {
				summary.OutputsMap[o.Addr] += o.Value
			}
		}
	}
	return summary, true
}

func skipReserved(idx int, reserved []int) int {
	if len(reserved) == 0 {
		return idx
	}
	set := make(map[int]struct{}, len(reserved))
	for _, r := range reserved {
		set[r] = struct{}{}
	}
	for {
		if _, ok := set[idx]; !ok {
			return idx
		}
		idx++
	}
}

func subtract(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

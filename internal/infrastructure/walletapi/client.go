package walletapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/thanhpk/randstr"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"github.com/vaultsync/payloadd/pkg/circuitbreaker"
	"github.com/vaultsync/payloadd/pkg/httputil"
	"github.com/vaultsync/payloadd/pkg/stats"
)

const (
	walletPath = "/wallet"

	methodFetch           = "wallet.aes.json"
	methodInsert          = "insert"
	methodUpdate          = "update"
	methodPairingPassword = "pairing-encryption-password"

	addressSeparator = "|"
)

// ClientOpts is the struct given to NewClient
type ClientOpts struct {
	URL     string
	APICode string
	Timeout time.Duration
}

func (o ClientOpts) validate() error {
	if o.URL == "" {
		return errors.New("missing wallet api url")
	}
	if _, err := url.Parse(o.URL); err != nil {
		return fmt.Errorf("invalid wallet api url: %s", err)
	}
	return nil
}

type client struct {
	endpoint string
	apiCode  string
	http     *httputil.Client
	cb       *gobreaker.CircuitBreaker
}

// NewClient returns an HTTP client of the remote wallet store. Every request
// goes through a circuit breaker, an open breaker is reported as a
// transport error.
func NewClient(opts ClientOpts) (ports.WalletAPI, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &client{
		endpoint: strings.TrimSuffix(opts.URL, "/") + walletPath,
		apiCode:  opts.APICode,
		http:     httputil.NewClient(opts.Timeout),
		cb:       circuitbreaker.NewCircuitBreaker("walletapi"),
	}, nil
}

func (c *client) FetchWalletData(
	ctx context.Context, guid, sharedKey string,
) (ports.Response, error) {
	return c.post(ctx, methodFetch, url.Values{
		"guid":      {guid},
		"sharedKey": {sharedKey},
		"format":    {"json"},
	})
}

func (c *client) InsertWallet(
	ctx context.Context, guid, sharedKey, payload, checksum, email, device string,
) (ports.Response, error) {
	return c.post(ctx, methodInsert, url.Values{
		"guid":      {guid},
		"sharedKey": {sharedKey},
		"payload":   {payload},
		"length":    {strconv.Itoa(len(payload))},
		"checksum":  {checksum},
		"email":     {email},
		"device":    {device},
	})
}

func (c *client) UpdateWallet(
	ctx context.Context,
	guid, sharedKey, payload, newChecksum, oldChecksum string,
	syncAddresses []string, device string,
) (ports.Response, error) {
	form := url.Values{
		"guid":         {guid},
		"sharedKey":    {sharedKey},
		"payload":      {payload},
		"length":       {strconv.Itoa(len(payload))},
		"checksum":     {newChecksum},
		"old_checksum": {oldChecksum},
		"device":       {device},
	}
	if len(syncAddresses) > 0 {
		form.Set("active", strings.Join(syncAddresses, addressSeparator))
	}
	return c.post(ctx, methodUpdate, form)
}

func (c *client) FetchPairingEncryptionPassword(
	ctx context.Context, guid string,
) (ports.Response, error) {
	return c.post(ctx, methodPairingPassword, url.Values{"guid": {guid}})
}

func (c *client) post(
	ctx context.Context, method string, form url.Values,
) (ports.Response, error) {
	form.Set("method", method)
	form.Set("ct", randstr.Hex(8))
	if c.apiCode != "" {
		form.Set("api_code", c.apiCode)
	}

	res, err := c.cb.Execute(func() (interface{}, error) {
		status, body, err := c.http.PostForm(ctx, c.endpoint, form, nil)
		if err != nil {
			return nil, err
		}
		return NewResponse(status, body), nil
	})
	if err != nil {
		stats.RemoteRequestsTotal.WithLabelValues("walletapi", method, "error").Inc()
		return nil, err
	}

	response := res.(Response)
	outcome := "success"
	if !response.IsSuccessful() {
		outcome = "failure"
	}
	stats.RemoteRequestsTotal.WithLabelValues("walletapi", method, outcome).Inc()
	return response, nil
}

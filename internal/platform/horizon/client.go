// Package horizon is the REST client for Stellar Horizon servers. One client
// fronts several named networks so callers can try public first and fall
// back to testnet.
package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// Client queries Horizon account records and submits signed transactions.
type Client struct {
	networks   map[string]string // network name -> base URL
	httpClient *http.Client
}

// NewClient creates a Horizon client over the given network map, e.g.
// {"public": "https://horizon.stellar.org", "testnet": ...}.
func NewClient(networks map[string]string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		networks: networks,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// QueryAccount fetches the account record for address on the named network.
// Unknown accounts return domain.ErrAccountNotFound; transport and server
// failures return domain.ErrExternalService.
func (c *Client) QueryAccount(ctx context.Context, network, address string) (domain.AccountState, error) {
	base, ok := c.networks[network]
	if !ok {
		return domain.AccountState{}, fmt.Errorf("horizon: unknown network %q: %w", network, domain.ErrInvalidInput)
	}

	path := base + "/accounts/" + url.PathEscape(address)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.AccountState{}, fmt.Errorf("horizon: query account %s on %s: %w", address, network, err)
	}

	var acc accountResponse
	if err := json.Unmarshal(body, &acc); err != nil {
		return domain.AccountState{}, fmt.Errorf("horizon: decode account: %w", err)
	}

	state := domain.AccountState{
		Address:  address,
		Network:  network,
		Exists:   true,
		Balances: make([]domain.AssetBalance, 0, len(acc.Balances)),
	}
	for _, b := range acc.Balances {
		amount, perr := strconv.ParseFloat(b.Balance, 64)
		if perr != nil {
			return domain.AccountState{}, fmt.Errorf("horizon: parse balance %q: %w", b.Balance, perr)
		}
		state.Balances = append(state.Balances, domain.AssetBalance{
			AssetType: b.AssetType,
			Amount:    amount,
		})
	}

	return state, nil
}

// SubmitTransaction posts a base64 transaction envelope to the named network
// and returns the transaction hash.
func (c *Client) SubmitTransaction(ctx context.Context, network, envelopeXDR string) (string, error) {
	base, ok := c.networks[network]
	if !ok {
		return "", fmt.Errorf("horizon: unknown network %q: %w", network, domain.ErrInvalidInput)
	}

	form := url.Values{}
	form.Set("tx", envelopeXDR)

	body, err := c.doRequest(ctx, http.MethodPost, base+"/transactions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("horizon: submit transaction on %s: %w", network, err)
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("horizon: decode submission: %w", err)
	}
	if resp.Hash == "" {
		return "", fmt.Errorf("horizon: submission returned no hash: %w", domain.ErrExternalService)
	}

	return resp.Hash, nil
}

func (c *Client) doRequest(ctx context.Context, method, fullURL string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrExternalService, err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx Horizon responses to domain errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return domain.ErrAccountNotFound
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, apiErr.Title)
	default:
		return fmt.Errorf("%w: HTTP %d: %s %s", domain.ErrExternalService, statusCode, apiErr.Title, apiErr.Detail)
	}
}

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pal/internal/domain"
)

// ExplorerClient fetches an account's transaction list from an
// etherscan-shaped block-explorer API. The explorer is read-only and
// best-effort: callers fall back to SampleTransactions on any failure.
type ExplorerClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

const defaultExplorerURL = "https://api.etherscan.io/api"

func NewExplorerClient(apiKey string) *ExplorerClient {
	return &ExplorerClient{
		BaseURL: defaultExplorerURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type explorerResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Result  []explorerTx `json:"result"`
}

type explorerTx struct {
	TimeStamp string `json:"timeStamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
}

// Transactions returns the address's transfer list, newest first.
func (c *ExplorerClient) Transactions(ctx context.Context, address string) ([]domain.Transaction, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultExplorerURL
	}
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "desc")
	if c.APIKey != "" {
		q.Set("apikey", c.APIKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer: unexpected status %d", resp.StatusCode)
	}
	var body explorerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("explorer: decode response: %w", err)
	}
	if body.Status != "1" {
		return nil, fmt.Errorf("explorer: %s", body.Message)
	}
	txs := make([]domain.Transaction, 0, len(body.Result))
	for _, raw := range body.Result {
		ts, err := strconv.ParseInt(raw.TimeStamp, 10, 64)
		if err != nil {
			continue
		}
		txs = append(txs, domain.Transaction{
			Timestamp: ts,
			From:      raw.From,
			To:        raw.To,
			Value:     raw.Value,
		})
	}
	return txs, nil
}

// TransactionsOrSample fetches from the explorer and falls back to the
// synthetic sample on any error.
func (c *ExplorerClient) TransactionsOrSample(ctx context.Context, address string) []domain.Transaction {
	txs, err := c.Transactions(ctx, address)
	if err != nil || len(txs) == 0 {
		return SampleTransactions(address, time.Now())
	}
	return txs
}

// Package ledger talks to the external anchor service that records
// (document id, content digest, department) tuples on a blockchain. The chain
// itself is opaque here; this client only knows the anchor service's HTTP API.
//
// Anchoring is best-effort by contract: the custody orchestrator holds this
// client as an optional dependency and treats both "not configured" and
// "anchor call failed" the same way, by storing the document without a tx hash.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"digisewa/internal/config"
)

// Receipt is the anchor service's acknowledgement of a recorded tuple.
type Receipt struct {
	TxHash string `json:"tx_hash"`
}

// Anchorer records and verifies content digests on the external ledger.
type Anchorer interface {
	// Anchor records the tuple and returns the transaction hash.
	Anchor(ctx context.Context, documentID, contentDigest, department string) (Receipt, error)
	// Verify reads back the anchored record and compares digests. It is used
	// for integrity display only, never for authorization decisions.
	Verify(ctx context.Context, documentID, contentDigest string) (bool, error)
}

// Client is the HTTP implementation of Anchorer. All connection state comes
// from the config struct passed to New; nothing is read from the environment.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
}

var _ Anchorer = (*Client)(nil)

// New builds a ledger client from explicit configuration.
func New(cfg config.LedgerConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ledger endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
	}, nil
}

type anchorRequest struct {
	DocumentID    string `json:"document_id"`
	ContentDigest string `json:"content_digest"`
	Department    string `json:"department"`
}

// Anchor posts the tuple to the anchor service and returns its receipt.
func (c *Client) Anchor(ctx context.Context, documentID, contentDigest, department string) (Receipt, error) {
	body, err := json.Marshal(anchorRequest{
		DocumentID:    documentID,
		ContentDigest: contentDigest,
		Department:    department,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("encode anchor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/anchors", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("anchor call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Receipt{}, fmt.Errorf("anchor service returned status %d", resp.StatusCode)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode anchor receipt: %w", err)
	}
	if receipt.TxHash == "" {
		return Receipt{}, fmt.Errorf("anchor receipt missing tx hash")
	}
	return receipt, nil
}

// Verify fetches the anchored record for documentID and compares digests.
func (c *Client) Verify(ctx context.Context, documentID, contentDigest string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/anchors/"+documentID, nil)
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("anchor service returned status %d", resp.StatusCode)
	}

	var record anchorRequest
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return false, fmt.Errorf("decode anchored record: %w", err)
	}
	return record.ContentDigest == contentDigest, nil
}

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"digisewa/internal/config"
)

// pinningStorage implements Storage against an IPFS pinning service HTTP API:
// blobs are pinned through the pin endpoint and read back through a gateway.
// It is safe for concurrent use by multiple goroutines.
type pinningStorage struct {
	client        *http.Client
	pinEndpoint   string
	gatewayURL    string
	apiKey        string
	retryAttempts int
	retryDelay    time.Duration
}

// pinResponse is the subset of the pin endpoint's response body we rely on.
type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// NewPinning creates a Storage backed by an IPFS pinning service.
func NewPinning(cfg config.PinningConfig) (Storage, error) {
	if cfg.PinEndpoint == "" {
		return nil, fmt.Errorf("pinning pin endpoint is required")
	}
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("pinning gateway url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &pinningStorage{
		client:        &http.Client{Timeout: timeout},
		pinEndpoint:   cfg.PinEndpoint,
		gatewayURL:    strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:        cfg.APIKey,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}, nil
}

// Put pins the blob and returns the CID reported by the service. The returned
// address is validated as a real CID before it is trusted.
func (p *pinningStorage) Put(ctx context.Context, blob []byte, opt PutOptions) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	name := opt.Name
	if name == "" {
		name = "blob"
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	if _, err := part.Write(blob); err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	if len(opt.Metadata) > 0 {
		meta, err := json.Marshal(map[string]any{"keyvalues": opt.Metadata})
		if err != nil {
			return "", fmt.Errorf("build pin request: %w", err)
		}
		if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
			return "", fmt.Errorf("build pin request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.pinEndpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: pin returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var pr pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("%w: decode pin response: %v", ErrUnavailable, err)
	}
	if _, err := cid.Decode(pr.IpfsHash); err != nil {
		return "", fmt.Errorf("pin returned invalid cid %q: %w", pr.IpfsHash, err)
	}
	return pr.IpfsHash, nil
}

// Get fetches a blob through the gateway, retrying a bounded number of times
// with a fixed delay. Gateways routinely serve transient errors while a pin
// propagates, so every failure is treated as retryable.
func (p *pinningStorage) Get(ctx context.Context, contentAddress string) ([]byte, error) {
	if _, err := cid.Decode(contentAddress); err != nil {
		return nil, fmt.Errorf("invalid content address %q: %w", contentAddress, err)
	}

	url := p.gatewayURL + "/ipfs/" + contentAddress
	return getWithRetry(ctx, p.retryAttempts, p.retryDelay, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
}

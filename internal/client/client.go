// Package client is a small HTTP client for the finwell API used by the
// command line tool.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finwell/internal/oracle"
	protocolhandler "finwell/internal/protocol/handler"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

// Client talks to one finwell server as one caller.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublicKey fetches the oracle key clients encrypt under.
func (c *Client) PublicKey(ctx context.Context) (*oracle.PublicContext, error) {
	var doc oracle.PublicKeyDocument
	if err := c.do(ctx, http.MethodGet, "/oracle/public-key", nil, &doc); err != nil {
		return nil, err
	}
	return oracle.ParsePublicKeyDocument(&doc)
}

// Upload stores a ciphertext and returns its handle.
func (c *Client) Upload(ctx context.Context, blob []byte) (id.Handle, error) {
	var resp struct {
		Handle id.Handle `json:"handle"`
	}
	body := map[string]string{"ciphertext": base64.StdEncoding.EncodeToString(blob)}
	if err := c.do(ctx, http.MethodPost, "/ciphertexts", body, &resp); err != nil {
		return id.Handle{}, err
	}
	return resp.Handle, nil
}

// EncryptAndUpload encrypts each value under key and uploads it.
func (c *Client) EncryptAndUpload(ctx context.Context, key *oracle.PublicContext, values ...int64) ([]id.Handle, error) {
	handles := make([]id.Handle, len(values))
	for i, v := range values {
		blob, err := key.Encrypt(v)
		if err != nil {
			return nil, fmt.Errorf("encrypt value %d: %w", i, err)
		}
		if handles[i], err = c.Upload(ctx, blob); err != nil {
			return nil, err
		}
	}
	return handles, nil
}

// Submit registers a record from three uploaded handles.
func (c *Client) Submit(ctx context.Context, income, expenses, savings id.Handle) (id.RecordID, error) {
	req := protocolhandler.SubmitRequest{
		Income:   income.String(),
		Expenses: expenses.String(),
		Savings:  savings.String(),
	}
	var resp protocolhandler.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/records", req, &resp); err != nil {
		return 0, err
	}
	return resp.RecordID, nil
}

// RequestAnalysis asks the analysis worker to score a record.
func (c *Client) RequestAnalysis(ctx context.Context, recordID id.RecordID) error {
	return c.do(ctx, http.MethodPost, "/records/"+recordID.String()+"/analysis", nil, nil)
}

// RequestDecryption asks the oracle to reveal a record.
func (c *Client) RequestDecryption(ctx context.Context, recordID id.RecordID) (id.RequestID, error) {
	var resp protocolhandler.DecryptionResponse
	if err := c.do(ctx, http.MethodPost, "/records/"+recordID.String()+"/decryption", nil, &resp); err != nil {
		return 0, err
	}
	return resp.RequestID, nil
}

// Revealed reads a record's cleartext view.
func (c *Client) Revealed(ctx context.Context, recordID id.RecordID) (*protocolhandler.RevealedResponse, error) {
	var resp protocolhandler.RevealedResponse
	if err := c.do(ctx, http.MethodGet, "/records/"+recordID.String()+"/revealed", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "server unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = string(dErrors.CodeInternal)
		}
		if eb.Description == "" {
			eb.Description = http.StatusText(resp.StatusCode)
		}
		return dErrors.New(dErrors.Code(eb.Error), eb.Description)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

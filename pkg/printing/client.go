package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pontodigital/pdv-backend/pkg/config"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("print base url is required")
	errLoggerRequired  = errors.New("print logger is required")
)

// Client dispatches text to the local print spooler. Dispatch success does
// not guarantee physical completion.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient validates the configuration and builds the print client.
func NewClient(cfg config.PrintingConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logg,
	}, nil
}

type printRequest struct {
	Text string `json:"text"`
}

// Print sends one printable document to the spooler.
func (c *Client) Print(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing to print")
	}

	payload, err := json.Marshal(printRequest{Text: text})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode print request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/print", bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build print request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "print spooler unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return pkgerrors.New(pkgerrors.CodeDependency, "print dispatch failed").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(excerpt)})
	}
	return nil
}

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nearest-departures/internal/general/errstatus"
)

// HTTPClient calls a stage over the HTTP transport.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient targets the stage listening at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Invoke posts req as JSON and decodes a successful reply into resp.
func (c *HTTPClient) Invoke(ctx context.Context, service, method string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("rpc %s/%s: encode request: %w", service, method, err)
	}

	url := fmt.Sprintf("%s/rpc/%s/%s", c.baseURL, service, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpc %s/%s: build request: %w", service, method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return transportError(service, method, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return transportError(service, method, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return decodeHTTPFailure(service, method, httpResp, raw)
	}

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(raw, resp); err != nil {
		return &CallError{Service: service, Method: method, Code: errstatus.RPCInternal,
			Description: "undecodable response", Cause: err}
	}
	return nil
}

func decodeHTTPFailure(service, method string, httpResp *http.Response, raw []byte) *CallError {
	ce := &CallError{Service: service, Method: method}

	code, ok := errstatus.ParseRPCCode(httpResp.Header.Get(HeaderStatus))
	if !ok {
		code = errstatus.RPCCodeFromHTTP(httpResp.StatusCode)
	}
	ce.Code = code

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		ce.Description = body.Error
	} else {
		ce.Description = http.StatusText(httpResp.StatusCode)
	}

	if v := httpResp.Header.Get(errstatus.HeaderHTTP); v != "" {
		st, err := errstatus.DecodeHeader(v)
		if err != nil {
			ce.DetailErr = err
		} else {
			ce.Status = st
		}
	}
	return ce
}

package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/overtime-sync/internal/common"
)

type rpcRequest struct {
	Params  any    `json:"params"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Error  *RPCError       `json:"error"`
	Result json.RawMessage `json:"result"`
}

// RPCError is the error object of a JSON-RPC response, such as an
// AccessDenied or ValidationError raised by the server.
type RPCError struct {
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
	Code int `json:"code"`
}

func (e *RPCError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("%s (%s): %s", e.Message, e.Data.Name, e.Data.Message)
	}
	return e.Message
}

// call posts a JSON-RPC envelope to path and decodes the result into out.
func (c *Client) call(ctx context.Context, path string, params any, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.requestID++
	payload, err := json.Marshal(rpcRequest{
		ID:      c.requestID,
		JSONRPC: "2.0",
		Method:  "call",
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.config.endpoint(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &common.HTTPError{URL: url, StatusCode: resp.StatusCode, Body: excerpt(body)}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return common.NewStepError(common.ErrProtocol, path, fmt.Sprintf("invalid JSON-RPC response: %s", excerpt(body)))
	}
	if envelope.Error != nil {
		return envelope.Error
	}

	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return common.NewStepError(common.ErrProtocol, path, fmt.Sprintf("unexpected result shape: %v", err))
	}
	return nil
}

// callKW invokes a model method through /web/dataset/call_kw.
func (c *Client) callKW(ctx context.Context, modelName, method string, args []any, kwargs map[string]any, out any) error {
	params := map[string]any{
		"model":  modelName,
		"method": method,
		"args":   args,
		"kwargs": kwargs,
	}
	return c.call(ctx, fmt.Sprintf("/web/dataset/call_kw/%s/%s", modelName, method), params, c.config.RPCTimeout, out)
}

// classifyRPC maps a server-side error object to a non-retryable step error
// of the given kind; transport and protocol errors pass through unchanged.
func classifyRPC(err error, kind error, step string) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return common.NewFatalStepError(kind, step, rpcErr.Error(), err)
	}
	return err
}

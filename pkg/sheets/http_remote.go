package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
)

// DefaultTimeout is the maximum time to wait for the spreadsheet web app.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// HTTPRemote talks to a spreadsheet web app endpoint.
type HTTPRemote struct {
	endpoint   *url.URL
	httpClient *http.Client
}

// NewHTTPRemote creates a remote for scriptURL. A zero timeout uses
// DefaultTimeout.
func NewHTTPRemote(scriptURL string, timeout time.Duration) (*HTTPRemote, error) {
	endpoint, err := url.Parse(scriptURL)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, apperrors.NewUserInputError(fmt.Sprintf("invalid script URL %q", scriptURL), err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPRemote{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Describe returns the endpoint host.
func (r *HTTPRemote) Describe() string {
	return "web app " + r.endpoint.Host
}

// Push posts the update request. Any 2xx response is success.
func (r *HTTPRemote) Push(ctx context.Context, req UpdateRequest) error {
	if req.Action == "" {
		req.Action = ActionUpdate
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode update request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return apperrors.NewTransportError("failed to reach sync endpoint", err).WithOp("push")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.NewTransportError(
			fmt.Sprintf("sync endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil,
		).WithOp("push")
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Fetch reads a worksheet with ?action=read&sheetName=<sheet>.
func (r *HTTPRemote) Fetch(ctx context.Context, sheet string) (*SheetData, error) {
	endpoint := *r.endpoint
	q := endpoint.Query()
	q.Set("action", ActionRead)
	q.Set("sheetName", sheet)
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to reach sync endpoint", err).WithOp("fetch")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to read response", err).WithOp("fetch")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, apperrors.NewTransportError(
			fmt.Sprintf("sync endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil,
		).WithOp("fetch")
	}

	return decodeSheetData(body)
}

// decodeSheetData parses a read response. An empty body, malformed JSON or
// a response without columns is a data-shape error.
func decodeSheetData(body []byte) (*SheetData, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperrors.NewDataShapeError("nothing to import: empty response", nil).WithOp("fetch")
	}

	var data SheetData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, apperrors.NewDataShapeError("nothing to import: malformed response", err).WithOp("fetch")
	}

	if len(data.Columns) == 0 {
		return nil, apperrors.NewDataShapeError("nothing to import: no columns", nil).WithOp("fetch")
	}

	return &data, nil
}

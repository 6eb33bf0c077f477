package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// RESTTarget writes to the destination through its PostgREST endpoint (/rest/v1).
type RESTTarget struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTTarget builds a client for projectURL (https://<ref>.supabase.co).
func NewRESTTarget(projectURL, apiKey string, timeout time.Duration) *RESTTarget {
	return &RESTTarget{
		baseURL: strings.TrimRight(projectURL, "/") + "/rest/v1/",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// OpenRESTTarget returns an opener that checks the endpoint answers with the key.
func OpenRESTTarget(projectURL, apiKey string, timeout time.Duration) migration.TargetOpener {
	return func(ctx context.Context) (migration.Target, error) {
		target := NewRESTTarget(projectURL, apiKey, timeout)
		if err := target.Ping(ctx); err != nil {
			return nil, err
		}
		return target, nil
	}
}

// postgrestError is the JSON error body PostgREST returns.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Ping requests the API root, which needs a valid key.
func (t *RESTTarget) Ping(ctx context.Context) error {
	resp, err := t.do(ctx, http.MethodGet, "", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("destination API returned status %d", resp.StatusCode)
	}
	logger.Info("Destination API reachable", map[string]interface{}{
		"url": t.baseURL,
	})
	return nil
}

// Upsert posts one row with merge-duplicates resolution on key.
func (t *RESTTarget) Upsert(ctx context.Context, table, key string, row migration.Row) *migration.WriteError {
	body, err := json.Marshal([]migration.Row{row})
	if err != nil {
		return &migration.WriteError{Kind: apperrors.WriteKindInvalidInput, Message: err.Error()}
	}

	query := url.Values{"on_conflict": {key}}
	resp, err := t.do(ctx, http.MethodPost, table+"?"+query.Encode(), bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
		"Prefer":       "resolution=merge-duplicates,return=minimal",
	})
	if err != nil {
		return &migration.WriteError{Kind: apperrors.WriteKindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return responseWriteError(resp)
}

// Clear deletes every row whose key is set.
func (t *RESTTarget) Clear(ctx context.Context, table, key string) error {
	query := url.Values{key: {"not.is.null"}}
	resp, err := t.do(ctx, http.MethodDelete, table+"?"+query.Encode(), nil, map[string]string{
		"Prefer": "return=minimal",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s", responseWriteError(resp).Message)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Count reads the exact count from the Content-Range header of a HEAD request.
func (t *RESTTarget) Count(ctx context.Context, table string) (int64, error) {
	resp, err := t.do(ctx, http.MethodHead, table+"?select=*", nil, map[string]string{
		"Prefer": "count=exact",
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("count %s: destination API returned status %d", table, resp.StatusCode)
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

// Close releases idle keep-alive connections.
func (t *RESTTarget) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *RESTTarget) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", t.apiKey)
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return t.client.Do(req)
}

// responseWriteError keeps the destination message verbatim. A non-JSON body
// is used as-is.
func responseWriteError(resp *http.Response) *migration.WriteError {
	raw, _ := io.ReadAll(resp.Body)

	var pgErr postgrestError
	if err := json.Unmarshal(raw, &pgErr); err == nil && pgErr.Message != "" {
		kind := apperrors.ClassifyCode(pgErr.Code)
		if kind == apperrors.WriteKindOther {
			kind = apperrors.ClassifyMessage(pgErr.Message)
		}
		return &migration.WriteError{Kind: kind, Message: pgErr.Message}
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = fmt.Sprintf("destination API returned status %d", resp.StatusCode)
	}
	return &migration.WriteError{Kind: apperrors.ClassifyMessage(msg), Message: msg}
}

// parseContentRange extracts the total from "0-24/25" or "*/0".
func parseContentRange(header string) (int64, error) {
	_, total, found := strings.Cut(header, "/")
	if !found || total == "" || total == "*" {
		return 0, fmt.Errorf("content range %q has no total", header)
	}
	return strconv.ParseInt(total, 10, 64)
}

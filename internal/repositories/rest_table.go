package repositories

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

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"trainingcrm/internal/models"
	"trainingcrm/internal/utils"
)

// RESTTable talks to a PostgREST endpoint, the REST face of a hosted
// Supabase project.
type RESTTable struct {
	baseURL string
	table   string
	apiKey  string
	reader  *retryablehttp.Client
	writer  *retryablehttp.Client
}

type RESTOptions struct {
	BaseURL string
	Table   string
	APIKey  string
	// SelectRetries bounds transport retries of the idempotent select.
	// Inserts and updates are always sent once.
	SelectRetries int
	Timeout       time.Duration
}

func NewRESTTable(opts RESTOptions) *RESTTable {
	table := opts.Table
	if table == "" {
		table = "opportunities"
	}
	return &RESTTable{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		table:   table,
		apiKey:  opts.APIKey,
		reader:  newRESTClient(opts.SelectRetries, opts.Timeout),
		writer:  newRESTClient(0, opts.Timeout),
	}
}

func newRESTClient(retries int, timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			utils.Log.WithField("attempt", attempt).Debugf("[rest] retry %s %s", req.Method, req.URL.Path)
		}
	}
	// Hand back the last response so its error body can be decoded.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

func (r *RESTTable) endpoint(query url.Values) string {
	u := r.baseURL + "/rest/v1/" + r.table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (r *RESTTable) newRequest(ctx context.Context, method, target string, body any) (*retryablehttp.Request, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(b)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (r *RESTTable) do(client *retryablehttp.Client, req *retryablehttp.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, restError(resp.StatusCode, body)
	}
	return body, nil
}

func (r *RESTTable) SelectAll(ctx context.Context) ([]models.Opportunity, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	req, err := r.newRequest(ctx, http.MethodGet, r.endpoint(q), nil)
	if err != nil {
		return nil, err
	}
	body, err := r.do(r.reader, req)
	if err != nil {
		return nil, fmt.Errorf("select opportunities: %w", err)
	}

	var rows []opportunityRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode opportunities: %w", err)
	}
	list := make([]models.Opportunity, 0, len(rows))
	for _, row := range rows {
		opp, err := row.toModel()
		if err != nil {
			return nil, err
		}
		list = append(list, opp)
	}
	return list, nil
}

func (r *RESTTable) Insert(ctx context.Context, opp *models.Opportunity) error {
	row, err := toRow(opp)
	if err != nil {
		return err
	}
	req, err := r.newRequest(ctx, http.MethodPost, r.endpoint(nil), row)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")
	if _, err := r.do(r.writer, req); err != nil {
		return fmt.Errorf("insert %s: %w", opp.ID, err)
	}
	return nil
}

func (r *RESTTable) Update(ctx context.Context, id string, patch models.OpportunityPatch) error {
	cols, vals, err := patchColumns(patch)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}
	fields := make(map[string]any, len(cols))
	for i, c := range cols {
		fields[c] = vals[i]
	}

	q := url.Values{}
	q.Set("id", "eq."+id)
	req, err := r.newRequest(ctx, http.MethodPatch, r.endpoint(q), fields)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	body, err := r.do(r.writer, req)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	if res := gjson.ParseBytes(body); !res.IsArray() || len(res.Array()) == 0 {
		return fmt.Errorf("update %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// restError turns a PostgREST error body into an error, mapping the
// Postgres unique-violation code onto ErrDuplicateID.
func restError(status int, body []byte) error {
	res := gjson.ParseBytes(body)
	code := res.Get("code").String()
	msg := res.Get("message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if code == "23505" || status == http.StatusConflict {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, msg)
	}
	if details := res.Get("details").String(); details != "" {
		msg += " (" + details + ")"
	}
	return fmt.Errorf("remote table: status=%d code=%s: %s", status, code, msg)
}

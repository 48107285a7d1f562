package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/notekeeper/pkg/auth"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
)

// ErrUnauthorized reports that the notes API rejected the session.
var ErrUnauthorized = errors.New("not authenticated")

// maxErrorBody bounds how much of an error response is read into the message.
const maxErrorBody = 4 << 10

// HTTPRecordService talks JSON to the notes API under baseURL (for example
// http://localhost:8080/api).
type HTTPRecordService struct {
	baseURL string
	session string
	client  *http.Client
}

// NewHTTPClient returns an http.Client with OTel transport instrumentation.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewHTTPRecordService returns a RecordService for the notes API. session is
// the value of the session cookie and may be empty when the API does not
// require authentication. A nil hc uses NewHTTPClient(10s).
func NewHTTPRecordService(baseURL, session string, hc *http.Client) *HTTPRecordService {
	if hc == nil {
		hc = NewHTTPClient(10 * time.Second)
	}
	return &HTTPRecordService{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		client:  hc,
	}
}

type noteDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageKey    string `json:"image_key"`
}

func (d noteDTO) record() Record {
	return Record{ID: d.ID, Name: d.Name, Description: d.Description, ImageKey: d.ImageKey}
}

type listDTO struct {
	Notes []noteDTO `json:"notes"`
}

// List returns every note of the caller in insertion order.
func (s *HTTPRecordService) List(ctx context.Context) ([]Record, error) {
	var out listDTO
	if err := s.do(ctx, http.MethodGet, "/note", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(out.Notes))
	for _, n := range out.Notes {
		recs = append(recs, n.record())
	}
	return recs, nil
}

// Create posts fields and returns the stored record with its assigned ID.
func (s *HTTPRecordService) Create(ctx context.Context, fields Fields) (Record, error) {
	var out noteDTO
	if err := s.do(ctx, http.MethodPost, "/note", fields, http.StatusCreated, &out); err != nil {
		return Record{}, err
	}
	return out.record(), nil
}

// Update overwrites every field of the note with the given id.
func (s *HTTPRecordService) Update(ctx context.Context, id string, fields Fields) error {
	return s.do(ctx, http.MethodPut, "/note/"+url.PathEscape(id), fields, http.StatusOK, nil)
}

// Delete removes the note with the given id.
func (s *HTTPRecordService) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/note/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

func (s *HTTPRecordService) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.session != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionName, Value: s.session})
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrTransport, method, path, err)
	}
	return nil
}

// statusError maps an unexpected response status onto the error taxonomy.
func statusError(resp *http.Response) error {
	msg := errorMessage(resp)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", notedomain.ErrNoteNotFound, msg)
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", notedomain.ErrInvalidNote, msg)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
}

func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

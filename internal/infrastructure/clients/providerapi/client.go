package providerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// Client reads the directory collections from the upstream directory API.
type Client interface {
	ListDoctors(ctx context.Context) ([]entities.Doctor, error)
	GetDoctorsByIDs(ctx context.Context, ids []int) ([]entities.Doctor, error)
	ListClinics(ctx context.Context) ([]entities.Clinic, error)
	ListSpecialties(ctx context.Context) ([]entities.Specialty, error)
	ListCities(ctx context.Context) ([]entities.City, error)
}

// StatusError is a non-2xx answer from the directory API.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory api returned status %d for %s", e.StatusCode, e.Endpoint)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

func NewClient(baseURL string) *HTTPClient {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: 10 * time.Second})
}

// NewClientWithHTTP uses the given HTTP client (used for tests).
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *HTTPClient) ListDoctors(ctx context.Context) ([]entities.Doctor, error) {
	return getList[entities.Doctor](ctx, c, "/doctors", nil)
}

// GetDoctorsByIDs fetches the given doctors in one request. Unknown ids are
// absent from the answer.
func (c *HTTPClient) GetDoctorsByIDs(ctx context.Context, ids []int) ([]entities.Doctor, error) {
	if len(ids) == 0 {
		return []entities.Doctor{}, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return getList[entities.Doctor](ctx, c, "/doctors", url.Values{"ids": []string{strings.Join(parts, ",")}})
}

// ListClinics returns clinics with DoctorIDs set; Doctors is left empty.
func (c *HTTPClient) ListClinics(ctx context.Context) ([]entities.Clinic, error) {
	return getList[entities.Clinic](ctx, c, "/clinics", nil)
}

// ListSpecialties returns the specialty tree.
func (c *HTTPClient) ListSpecialties(ctx context.Context) ([]entities.Specialty, error) {
	return getList[entities.Specialty](ctx, c, "/specialties", nil)
}

func (c *HTTPClient) ListCities(ctx context.Context) ([]entities.City, error) {
	return getList[entities.City](ctx, c, "/cities", nil)
}

func getList[T any](ctx context.Context, c *HTTPClient, path string, query url.Values) ([]T, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var out listResponse[T]
	if err := c.doJSON(ctx, http.MethodGet, endpoint, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []T{}, nil
	}
	return out.Data, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}
	return nil
}

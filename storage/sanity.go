package storage

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"homesite_sync/config"
	"homesite_sync/models"
)

// APIError is a non-2xx response from the CMS.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sanity error %d: %s", e.StatusCode, e.Body)
}

// Retryable reports throttling and server-side failures.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// SanityStore talks to the Sanity HTTP API with a bearer token.
type SanityStore struct {
	mutateURL string
	queryURL  string
	token     string
	client    *http.Client
	retry     RetryConfig
	logger    *zap.Logger
}

func NewSanityStore(cfg config.SanityConfig, client *http.Client, logger *zap.Logger) *SanityStore {
	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	}
	base = strings.TrimRight(base, "/")
	version := "v" + strings.TrimPrefix(cfg.APIVersion, "v")

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SanityStore{
		mutateURL: fmt.Sprintf("%s/%s/data/mutate/%s?returnIds=true", base, version, cfg.Dataset),
		queryURL:  fmt.Sprintf("%s/%s/data/query/%s", base, version, cfg.Dataset),
		token:     cfg.Token,
		client:    client,
		retry: RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
		},
		logger: logger,
	}
}

type mutateRequest struct {
	Mutations     []Mutation `json:"mutations"`
	TransactionID string     `json:"transactionId"`
}

func (s *SanityStore) Mutate(ctx context.Context, mutations ...Mutation) error {
	if len(mutations) == 0 {
		return nil
	}

	data, err := json.Marshal(mutateRequest{Mutations: mutations, TransactionID: uuid.NewString()})
	if err != nil {
		return fmt.Errorf("marshal mutations: %w", err)
	}

	return s.retry.Do(ctx, "sanity mutate", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.mutateURL, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.token)

		_, err = s.do(req)
		return err
	})
}

// Query runs a GROQ query. Params are bound as $name variables so user input
// never becomes part of the query text.
func (s *SanityStore) Query(ctx context.Context, groq string, params map[string]any, out any) error {
	q := url.Values{}
	q.Set("query", groq)
	for name, val := range params {
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encode param %s: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}

	var body []byte
	err := s.retry.Do(ctx, "sanity query", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.queryURL+"?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+s.token)

		body, err = s.do(req)
		return err
	})
	if err != nil {
		return err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode query response: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode query result: %w", err)
	}
	return nil
}

func (s *SanityStore) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

const communitiesQuery = `*[_type == "community" && defined(pageLink)
  && ($state == "" || lower(stateRef->name) match $statePattern || lower(stateRef->_id) match $statePattern)
  && ($area == "" || lower(areaRef->name) match $areaPattern)
  && ($community == "" || lower(name) match $communityPattern)
]{ _id, name, pageLink, "stateName": stateRef->name, "stateId": stateRef->_id, "areaName": areaRef->name }`

func (s *SanityStore) Communities(ctx context.Context, filter CommunityFilter) ([]models.CommunitySummary, error) {
	state := strings.ToLower(filter.State)
	area := strings.ToLower(filter.Area)
	community := strings.ToLower(filter.Community)

	params := map[string]any{
		"state":            state,
		"statePattern":     state + "*",
		"area":             area,
		"areaPattern":      area + "*",
		"community":        community,
		"communityPattern": "*" + community + "*",
	}

	var out []models.CommunitySummary
	if err := s.Query(ctx, communitiesQuery, params, &out); err != nil {
		return nil, fmt.Errorf("query communities: %w", err)
	}
	return out, nil
}

func (s *SanityStore) FloorPlans(ctx context.Context) ([]models.FloorPlanSummary, error) {
	var out []models.FloorPlanSummary
	if err := s.Query(ctx, `*[_type == "floorPlan"]{ _id, name, communityRef }`, nil, &out); err != nil {
		return nil, fmt.Errorf("query floor plans: %w", err)
	}
	return out, nil
}

func (s *SanityStore) Houses(ctx context.Context, filter HouseFilter) ([]models.HouseSummary, error) {
	groq := `*[_type == "house"]{ _id, address, floorPlanName, communityRef, floorPlanRef }`
	if filter.UnlinkedOnly {
		groq = `*[_type == "house" && defined(floorPlanName) && !defined(floorPlanRef)]{ _id, address, floorPlanName, communityRef, floorPlanRef }`
	}

	var out []models.HouseSummary
	if err := s.Query(ctx, groq, nil, &out); err != nil {
		return nil, fmt.Errorf("query houses: %w", err)
	}
	return out, nil
}

func (s *SanityStore) Documents(ctx context.Context, query DocumentQuery) ([]models.Document, error) {
	filters := []string{"true"}
	params := map[string]any{}
	if len(query.Types) > 0 {
		filters = append(filters, "_type in $types")
		params["types"] = query.Types
	}
	if query.DraftsOnly {
		filters = append(filters, `_id in path("drafts.**")`)
	}

	var out []models.Document
	groq := fmt.Sprintf("*[%s]", strings.Join(filters, " && "))
	if err := s.Query(ctx, groq, params, &out); err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return out, nil
}

package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/models"
)

const (
	maxErrorBodyBytes = 1024
	maxResponseBytes  = 32 << 20
	scrollPageSize    = 256
)

var pointIDNamespaceUUID = uuid.MustParse("6a1c3f52-8d0e-4b7a-9f21-3c5e7d9b0a14")

// Config configures the Qdrant REST client
type Config struct {
	URL       string
	APIKey    string
	VectorDim int
	Timeout   time.Duration
}

// Store is a textbook-chunk store backed by Qdrant collections
type Store struct {
	log       *logger.Logger
	baseURL   string
	apiKey    string
	vectorDim int
	http      *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type scrollResult struct {
	Points         []qdrantPoint   `json:"points"`
	NextPageOffset json.RawMessage `json:"next_page_offset"`
}

// NewStore creates a Qdrant store client
func NewStore(log *logger.Logger, cfg Config) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, opErr("configure", OperationErrorValidation, "qdrant url is required", nil)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, opErr("configure", OperationErrorValidation, "qdrant url is invalid", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Store{
		log:       log.With("service", "QdrantStore"),
		baseURL:   base,
		apiKey:    cfg.APIKey,
		vectorDim: cfg.VectorDim,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// CollectionExists reports whether the collection has been created
func (s *Store) CollectionExists(ctx context.Context, collection string) (bool, error) {
	const op = "collection_exists"
	err := s.doJSON(ctx, op, http.MethodGet, collectionPath(collection, ""), nil, nil)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// EnsureCollection creates the collection with cosine distance when it is missing,
// along with keyword indexes on the filterable payload fields
func (s *Store) EnsureCollection(ctx context.Context, collection string, dim int) error {
	const op = "ensure_collection"
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if dim <= 0 {
		dim = s.vectorDim
	}
	if dim <= 0 {
		return opErr(op, OperationErrorValidation, "vector dimension is required to create a collection", nil)
	}

	req := map[string]any{
		"vectors": map[string]any{"size": dim, "distance": "Cosine"},
	}
	if err := s.doJSON(ctx, op, http.MethodPut, collectionPath(collection, ""), req, nil); err != nil {
		return err
	}
	for _, field := range []string{"chapter", "topic", "chunk_type"} {
		idx := map[string]any{"field_name": field, "field_schema": "keyword"}
		if err := s.doJSON(ctx, op, http.MethodPut, collectionPath(collection, "/index?wait=true"), idx, nil); err != nil {
			return err
		}
	}

	s.log.Info("Created qdrant collection", "collection", collection, "vector_dim", dim)
	return nil
}

// Upsert writes chunks with their vectors into a collection
func (s *Store) Upsert(ctx context.Context, collection string, chunks []models.Chunk) error {
	const op = "upsert"
	if len(chunks) == 0 {
		return nil
	}

	points := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return opErr(op, OperationErrorValidation, "chunk id is required", nil)
		}
		if len(c.Vector) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("chunk %q has no vector", id), nil)
		}
		if s.vectorDim > 0 && len(c.Vector) != s.vectorDim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("chunk %q dimension mismatch: expected=%d got=%d", id, s.vectorDim, len(c.Vector)), nil)
		}
		points = append(points, map[string]any{
			"id":      pointID(collection, id),
			"vector":  c.Vector,
			"payload": chunkPayload(c),
		})
	}

	req := map[string]any{"points": points}
	return s.doJSON(ctx, op, http.MethodPut, collectionPath(collection, "/points?wait=true"), req, nil)
}

// Search returns the chunks nearest to vector whose payload matches every filter entry
func (s *Store) Search(ctx context.Context, collection string, vector []float64, filter map[string]string, limit int) ([]models.Chunk, error) {
	const op = "search"
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if s.vectorDim > 0 && len(vector) != s.vectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.vectorDim, len(vector)), nil)
	}
	if limit <= 0 {
		limit = 10
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if f := translateFilter(filter); f != nil {
		req["filter"] = f
	}

	var raw []qdrantPoint
	if err := s.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points/search"), req, &raw); err != nil {
		return nil, err
	}

	out := make([]models.Chunk, 0, len(raw))
	for _, p := range raw {
		c := payloadChunk(p.Payload)
		if c.ID == "" {
			c.ID = decodePointID(p.ID)
		}
		c.Score = p.Score
		out = append(out, c)
	}
	return out, nil
}

// DistinctValues scrolls the collection and returns the sorted distinct values of a payload field
func (s *Store) DistinctValues(ctx context.Context, collection, field string, filter map[string]string) ([]string, error) {
	const op = "distinct_values"
	if strings.TrimSpace(field) == "" {
		return nil, opErr(op, OperationErrorValidation, "field is required", nil)
	}

	seen := map[string]struct{}{}
	var offset json.RawMessage
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{field},
			"with_vector":  false,
		}
		if f := translateFilter(filter); f != nil {
			req["filter"] = f
		}
		if len(offset) > 0 {
			req["offset"] = offset
		}

		var page scrollResult
		if err := s.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points/scroll"), req, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Points {
			if v, ok := p.Payload[field].(string); ok && strings.TrimSpace(v) != "" {
				seen[v] = struct{}{}
			}
		}

		if len(page.NextPageOffset) == 0 || string(page.NextPageOffset) == "null" || len(page.Points) == 0 {
			break
		}
		offset = page.NextPageOffset
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing
func (s *Store) Close() {}

func (s *Store) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil && strings.TrimSpace(statusObject.Error) != "" {
		return strings.TrimSpace(statusObject.Error)
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func collectionPath(collection, suffix string) string {
	return "/collections/" + url.PathEscape(collection) + suffix
}

func pointID(collection, chunkID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(collection+"|"+chunkID)).String()
}

// translateFilter turns exact-match pairs into a Qdrant must filter, keys in sorted order
func translateFilter(filter map[string]string) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]any, 0, len(keys))
	for _, k := range keys {
		must = append(must, map[string]any{
			"key":   k,
			"match": map[string]any{"value": filter[k]},
		})
	}
	return map[string]any{"must": must}
}

func chunkPayload(c models.Chunk) map[string]any {
	return map[string]any{
		"chunk_id":   c.ID,
		"text":       c.Text,
		"chapter":    c.Chapter,
		"section":    c.Section,
		"topic":      c.Topic,
		"chunk_type": string(c.Role),
		"page_start": c.PageStart,
		"page_end":   c.PageEnd,
	}
}

func payloadChunk(p map[string]any) models.Chunk {
	return models.Chunk{
		ID:        payloadString(p, "chunk_id"),
		Text:      payloadString(p, "text"),
		Chapter:   payloadString(p, "chapter"),
		Section:   payloadString(p, "section"),
		Topic:     payloadString(p, "topic"),
		Role:      models.Role(payloadString(p, "chunk_type")),
		PageStart: payloadInt(p, "page_start"),
		PageEnd:   payloadInt(p, "page_end"),
	}
}

func payloadString(p map[string]any, key string) string {
	if v, ok := p[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func payloadInt(p map[string]any, key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

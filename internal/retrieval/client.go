// Package retrieval fetches and blends textbook passages for one question slot.
package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"question-paper-rag/internal/embedding"
	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/mixer"
	"question-paper-rag/internal/models"
	"question-paper-rag/internal/topic"
)

// Searcher is a similarity-search backend holding textbook chunks
type Searcher interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	DistinctValues(ctx context.Context, collection, field string, filter map[string]string) ([]string, error)
	Search(ctx context.Context, collection string, vector []float64, filter map[string]string, limit int) ([]models.Chunk, error)
}

// Client resolves topics, embeds the query and searches for reference content
type Client struct {
	store    Searcher
	embedder embedding.Embedder
	resolver *topic.Resolver
	mixer    *mixer.Mixer
	log      *logger.Logger

	// Broaden retries a search that found nothing with the topic dropped from the filter
	Broaden bool
}

// NewClient creates a retrieval client. Nil resolver or mixer get defaults.
func NewClient(store Searcher, embedder embedding.Embedder, resolver *topic.Resolver, m *mixer.Mixer, log *logger.Logger) *Client {
	if resolver == nil {
		resolver = topic.NewResolver()
	}
	if m == nil {
		m = mixer.New(mixer.DefaultTarget)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		store:    store,
		embedder: embedder,
		resolver: resolver,
		mixer:    m,
		log:      log.With("component", "retrieval"),
		Broaden:  true,
	}
}

// CollectionName is the store collection holding a subject's textbook for a class
func CollectionName(subject string, class int) string {
	s := strings.ToLower(strings.TrimSpace(subject))
	s = strings.Join(strings.Fields(s), "_")
	return s + "_" + strconv.Itoa(class)
}

// Topics lists the topics indexed for a chapter, or for the whole collection when chapter is empty
func (c *Client) Topics(ctx context.Context, subject string, class int, chapter string) ([]string, error) {
	collection := CollectionName(subject, class)
	exists, err := c.store.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	if !exists {
		return nil, newError(KindCollectionMissing, nil, "collection '%s' not found", collection)
	}
	var filter map[string]string
	if chapter != "" {
		filter = map[string]string{"chapter": chapter}
	}
	return c.store.DistinctValues(ctx, collection, "topic", filter)
}

// Retrieve fetches mixed reference content for one requirement. It never
// returns an error: failures are reported on the result with a kind.
func (c *Client) Retrieve(ctx context.Context, questionID string, req models.QuestionRequirement) models.RetrievalResult {
	res := models.RetrievalResult{
		QuestionID:     questionID,
		Chapter:        req.Chapter,
		Topic:          req.Topic,
		Format:         req.Format,
		Marks:          req.Marks,
		Difficulty:     req.Difficulty,
		CognitiveLevel: req.CognitiveLevel,
		Nature:         req.Nature,
		Chunks:         []models.Chunk{},
		Provenance:     models.Provenance{Collection: CollectionName(req.Subject, req.ClassLevel)},
	}

	if err := c.retrieve(ctx, req, &res); err != nil {
		rerr := classify(err, KindSearchFailed)
		res.Error = rerr.Error()
		res.ErrorKind = string(rerr.Kind)
		res.Chunks = []models.Chunk{}
		c.log.Warn("retrieval failed",
			"question_id", questionID,
			"chapter", req.Chapter,
			"topic", req.Topic,
			"kind", rerr.Kind,
			"error", res.Error)
		return res
	}

	c.log.Debug("retrieved content",
		"question_id", questionID,
		"topic", res.Topic,
		"chunks", len(res.Chunks),
		"broadened", res.Provenance.Broadened)
	return res
}

func (c *Client) retrieve(ctx context.Context, req models.QuestionRequirement, res *models.RetrievalResult) error {
	collection := res.Provenance.Collection

	if strings.TrimSpace(req.Chapter) == "" {
		return newError(KindBlueprint, nil, "topic '%s' not found in any chapter of syllabus scope", req.Topic)
	}

	exists, err := c.store.CollectionExists(ctx, collection)
	if err != nil {
		return newError(KindSearchFailed, err, "failed to check collection '%s'", collection)
	}
	if !exists {
		return newError(KindCollectionMissing, nil, "collection '%s' not found", collection)
	}

	available, err := c.store.DistinctValues(ctx, collection, "topic", map[string]string{"chapter": req.Chapter})
	if err != nil {
		return newError(KindSearchFailed, err, "failed to list topics for chapter '%s'", req.Chapter)
	}
	match := c.resolver.Resolve(req.Topic, available)
	if !match.Found {
		return newError(KindTopicUnmatched, nil, "topic '%s' not found. Did you mean: %s?",
			req.Topic, strings.Join(match.Suggestions, ", "))
	}
	res.Topic = match.Best
	res.Provenance.MatchedTopic = match.Best
	res.Provenance.MatchScore = match.Score

	query := strings.TrimSpace(fmt.Sprintf("%s %s %s", req.Chapter, match.Best, req.CognitiveLevel))
	res.Provenance.Query = query
	res.Provenance.EmbeddingModel = c.embedder.Model()

	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return newError(KindEmbeddingFailed, err, "failed to embed query")
	}

	limit := 2 * c.mixer.Target
	filter := map[string]string{"chapter": req.Chapter, "topic": match.Best}
	chunks, err := c.store.Search(ctx, collection, vector, filter, limit)
	if err != nil {
		return newError(KindSearchFailed, err, "search failed in '%s'", collection)
	}

	if len(chunks) == 0 && c.Broaden {
		filter = map[string]string{"chapter": req.Chapter}
		chunks, err = c.store.Search(ctx, collection, vector, filter, limit)
		if err != nil {
			return newError(KindSearchFailed, err, "search failed in '%s'", collection)
		}
		res.Provenance.Broadened = true
	}
	res.Provenance.Filter = filter

	if len(chunks) == 0 {
		return newError(KindNoContent, nil, "no content found for %s/%s", req.Chapter, match.Best)
	}

	mixed := c.mixer.Mix(chunks, req.Format)
	if len(mixed) == 0 {
		return newError(KindNoContent, nil, "no content found for %s/%s", req.Chapter, match.Best)
	}
	res.Chunks = mixed
	res.Provenance.RoleCounts = mixer.RoleCounts(mixed)
	return nil
}

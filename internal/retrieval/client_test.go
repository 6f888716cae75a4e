package retrieval

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/mixer"
	"question-paper-rag/internal/models"
	"question-paper-rag/internal/topic"
)

type fakeStore struct {
	collections map[string]bool
	topics      []string
	chunks      []models.Chunk
	// topicFiltered makes searches that filter on topic come back empty
	topicFiltered bool
	searchErr     error

	searches []map[string]string
	limits   []int
}

func (f *fakeStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return f.collections[collection], nil
}

func (f *fakeStore) DistinctValues(ctx context.Context, collection, field string, filter map[string]string) ([]string, error) {
	return f.topics, nil
}

func (f *fakeStore) Search(ctx context.Context, collection string, vector []float64, filter map[string]string, limit int) ([]models.Chunk, error) {
	f.searches = append(f.searches, filter)
	f.limits = append(f.limits, limit)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if _, ok := filter["topic"]; ok && f.topicFiltered {
		return nil, nil
	}
	return f.chunks, nil
}

type fakeEmbedder struct {
	err     error
	queries []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embed" }

func sampleChunks() []models.Chunk {
	var out []models.Chunk
	roles := []models.Role{models.RoleTheory, models.RoleWorkedExample, models.RoleExercisePattern}
	for i := 0; i < 12; i++ {
		out = append(out, models.Chunk{
			ID:    fmt.Sprintf("c%d", i),
			Text:  "text",
			Role:  roles[i%3],
			Score: float64(100 - i),
		})
	}
	return out
}

func requirement() models.QuestionRequirement {
	return models.QuestionRequirement{
		ClassLevel:     10,
		Subject:        "Mathematics",
		Chapter:        "Polynomials",
		Topic:          "zeroes of polynomial",
		Format:         models.FormatMCQ,
		Marks:          1,
		Difficulty:     models.Easy,
		CognitiveLevel: "REMEMBER",
		Nature:         "NUMERICAL",
	}
}

func newTestClient(store *fakeStore, emb *fakeEmbedder) *Client {
	return NewClient(store, emb, topic.NewResolver(), mixer.New(10), logger.Nop())
}

func TestCollectionName(t *testing.T) {
	cases := map[string]string{
		"Mathematics":    "mathematics_10",
		"Social Science": "social_science_10",
		"  Science  ":    "science_10",
	}
	for subject, want := range cases {
		if got := CollectionName(subject, 10); got != want {
			t.Fatalf("CollectionName(%q): want=%q got=%q", subject, want, got)
		}
	}
}

func TestRetrieveSuccess(t *testing.T) {
	store := &fakeStore{
		collections: map[string]bool{"mathematics_10": true},
		topics:      []string{"Zeroes of a Polynomial", "Division Algorithm"},
		chunks:      sampleChunks(),
	}
	emb := &fakeEmbedder{}
	c := newTestClient(store, emb)

	res := c.Retrieve(context.Background(), "MATH-10-POL-MCQ-001", requirement())
	if res.Failed() {
		t.Fatalf("unexpected error: %s (%s)", res.Error, res.ErrorKind)
	}
	if res.Topic != "Zeroes of a Polynomial" {
		t.Fatalf("topic: want resolved name got=%q", res.Topic)
	}
	// MCQ asks for 5/3/2 but only 4 theory chunks exist
	if len(res.Chunks) != 9 {
		t.Fatalf("chunks: want=9 got=%d", len(res.Chunks))
	}
	wantCounts := map[models.Role]int{models.RoleTheory: 4, models.RoleWorkedExample: 3, models.RoleExercisePattern: 2}
	if !reflect.DeepEqual(res.Provenance.RoleCounts, wantCounts) {
		t.Fatalf("role counts: want=%v got=%v", wantCounts, res.Provenance.RoleCounts)
	}
	if emb.queries[0] != "Polynomials Zeroes of a Polynomial REMEMBER" {
		t.Fatalf("query: got=%q", emb.queries[0])
	}
	if store.limits[0] != 20 {
		t.Fatalf("limit: want=20 got=%d", store.limits[0])
	}
	wantFilter := map[string]string{"chapter": "Polynomials", "topic": "Zeroes of a Polynomial"}
	if !reflect.DeepEqual(res.Provenance.Filter, wantFilter) {
		t.Fatalf("filter: want=%v got=%v", wantFilter, res.Provenance.Filter)
	}
	if res.Provenance.EmbeddingModel != "fake-embed" || res.Provenance.Broadened {
		t.Fatalf("provenance: got=%+v", res.Provenance)
	}
}

func TestRetrieveBroadensEmptyTopicSearch(t *testing.T) {
	store := &fakeStore{
		collections:   map[string]bool{"mathematics_10": true},
		topics:        []string{"Zeroes of a Polynomial"},
		chunks:        sampleChunks(),
		topicFiltered: true,
	}
	c := newTestClient(store, &fakeEmbedder{})

	res := c.Retrieve(context.Background(), "q", requirement())
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !res.Provenance.Broadened {
		t.Fatalf("expected broadened search")
	}
	if len(store.searches) != 2 {
		t.Fatalf("searches: want=2 got=%d", len(store.searches))
	}
	if _, ok := res.Provenance.Filter["topic"]; ok {
		t.Fatalf("broadened filter should drop topic: %v", res.Provenance.Filter)
	}
}

func TestRetrieveErrors(t *testing.T) {
	cases := []struct {
		name     string
		store    *fakeStore
		emb      *fakeEmbedder
		req      func(models.QuestionRequirement) models.QuestionRequirement
		broaden  bool
		wantKind Kind
		wantText string
	}{
		{
			name:     "collection missing",
			store:    &fakeStore{collections: map[string]bool{}},
			wantKind: KindCollectionMissing,
			wantText: "mathematics_10",
		},
		{
			name:     "topic unmatched",
			store:    &fakeStore{collections: map[string]bool{"mathematics_10": true}, topics: []string{"Division Algorithm", "Graphs"}},
			wantKind: KindTopicUnmatched,
			wantText: "Did you mean:",
		},
		{
			name:     "embedding failed",
			store:    &fakeStore{collections: map[string]bool{"mathematics_10": true}, topics: []string{"zeroes of polynomial"}},
			emb:      &fakeEmbedder{err: errors.New("model offline")},
			wantKind: KindEmbeddingFailed,
			wantText: "model offline",
		},
		{
			name:     "search failed",
			store:    &fakeStore{collections: map[string]bool{"mathematics_10": true}, topics: []string{"zeroes of polynomial"}, searchErr: errors.New("boom")},
			wantKind: KindSearchFailed,
			wantText: "boom",
		},
		{
			name:     "timeout",
			store:    &fakeStore{collections: map[string]bool{"mathematics_10": true}, topics: []string{"zeroes of polynomial"}, searchErr: fmt.Errorf("post: %w", context.DeadlineExceeded)},
			wantKind: KindTimeout,
			wantText: "timed out",
		},
		{
			name:     "no content",
			store:    &fakeStore{collections: map[string]bool{"mathematics_10": true}, topics: []string{"zeroes of polynomial"}},
			broaden:  true,
			wantKind: KindNoContent,
			wantText: "no content found for Polynomials/zeroes of polynomial",
		},
		{
			name:  "missing chapter",
			store: &fakeStore{collections: map[string]bool{"mathematics_10": true}},
			req: func(r models.QuestionRequirement) models.QuestionRequirement {
				r.Chapter = ""
				return r
			},
			wantKind: KindBlueprint,
			wantText: "not found in any chapter",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emb := tc.emb
			if emb == nil {
				emb = &fakeEmbedder{}
			}
			c := newTestClient(tc.store, emb)
			c.Broaden = tc.broaden
			req := requirement()
			if tc.req != nil {
				req = tc.req(req)
			}

			res := c.Retrieve(context.Background(), "MATH-10-POL-MCQ-001", req)
			if !res.Failed() {
				t.Fatalf("expected failure")
			}
			if res.ErrorKind != string(tc.wantKind) {
				t.Fatalf("kind: want=%s got=%s (%s)", tc.wantKind, res.ErrorKind, res.Error)
			}
			if !strings.Contains(res.Error, tc.wantText) {
				t.Fatalf("error: want substring %q got=%q", tc.wantText, res.Error)
			}
			if res.Chunks == nil || len(res.Chunks) != 0 {
				t.Fatalf("failed result should carry an empty chunk list: %v", res.Chunks)
			}
			if res.QuestionID != "MATH-10-POL-MCQ-001" || res.Format != models.FormatMCQ {
				t.Fatalf("requirement fields should be kept: %+v", res)
			}
		})
	}
}

func TestTopics(t *testing.T) {
	store := &fakeStore{collections: map[string]bool{"science_9": true}, topics: []string{"Atoms"}}
	c := newTestClient(store, &fakeEmbedder{})

	got, err := c.Topics(context.Background(), "Science", 9, "")
	if err != nil || !reflect.DeepEqual(got, []string{"Atoms"}) {
		t.Fatalf("Topics: got=%v err=%v", got, err)
	}

	_, err = c.Topics(context.Background(), "History", 9, "")
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindCollectionMissing {
		t.Fatalf("want collection_missing, got=%v", err)
	}
}

package database

import (
	"context"
	"os"
	"reflect"
	"testing"

	"question-paper-rag/internal/models"
)

func TestBuildWhere(t *testing.T) {
	where, args, err := buildWhere("mathematics_10", map[string]string{"topic": "Zeroes", "chapter": "Polynomials"}, 2)
	if err != nil {
		t.Fatalf("buildWhere: %v", err)
	}
	wantWhere := "collection = $2 AND chapter = $3 AND topic = $4"
	if where != wantWhere {
		t.Fatalf("where: want=%q got=%q", wantWhere, where)
	}
	wantArgs := []any{"mathematics_10", "Polynomials", "Zeroes"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args: want=%v got=%v", wantArgs, args)
	}
}

func TestBuildWhereRejectsUnknownColumn(t *testing.T) {
	if _, _, err := buildWhere("c", map[string]string{"content; DROP TABLE x": "y"}, 1); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

// Runs against a live pgvector instance when PG_TEST_CONN is set
func TestDBRoundTrip(t *testing.T) {
	conn := os.Getenv("PG_TEST_CONN")
	if conn == "" {
		t.Skip("PG_TEST_CONN not set")
	}
	db, err := NewDB(conn)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Initialize(ctx, 3); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	collection := "test_" + t.Name()
	defer db.Pool.Exec(ctx, `DELETE FROM textbook_chunks WHERE collection = $1`, collection)

	chunks := []models.Chunk{
		{ID: "a", Text: "theory", Chapter: "Polynomials", Topic: "Zeroes", Role: models.RoleTheory, Vector: []float64{1, 0, 0}},
		{ID: "b", Text: "example", Chapter: "Polynomials", Topic: "Division", Role: models.RoleWorkedExample, Vector: []float64{0, 1, 0}},
	}
	if err := db.Upsert(ctx, collection, chunks); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	exists, err := db.CollectionExists(ctx, collection)
	if err != nil || !exists {
		t.Fatalf("CollectionExists: exists=%v err=%v", exists, err)
	}

	topics, err := db.DistinctValues(ctx, collection, "topic", map[string]string{"chapter": "Polynomials"})
	if err != nil {
		t.Fatalf("DistinctValues: %v", err)
	}
	if !reflect.DeepEqual(topics, []string{"Division", "Zeroes"}) {
		t.Fatalf("topics: got=%v", topics)
	}

	got, err := db.Search(ctx, collection, []float64{1, 0, 0}, map[string]string{"chapter": "Polynomials"}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" {
		t.Fatalf("search order: got=%+v", got)
	}
}

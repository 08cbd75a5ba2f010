package vectorstore

import (
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/mohammad-safakhou/newsrag/models"
)

func TestPgvectorQueryOrdersByCosineDistance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	p := &Pgvector{DB: db}
	query := regexp.QuoteMeta(`
SELECT id, title, content, url
FROM news_articles
ORDER BY embedding <=> $1::vector
LIMIT $2
`)
	rows := sqlmock.NewRows([]string{"id", "title", "content", "url"}).
		AddRow("id-1", "A", "A: one", "u1").
		AddRow("id-2", "B", "B: two", "u2")
	mock.ExpectQuery(query).WithArgs(sqlmock.AnyArg(), 3).WillReturnRows(rows)

	docs, err := p.Query(t.Context(), vec(0.2), 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "id-1" || docs[1].Content != "B: two" {
		t.Fatalf("unexpected docs %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPgvectorUpsertCommitsBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	p := &Pgvector{DB: db}
	docs := []models.Document{
		{ID: "id-1", Title: "A", Content: "A: one", URL: "u1", Vector: vec(0.1)},
		{ID: "id-2", Title: "B", Content: "B: two", URL: "u2", Vector: vec(0.2)},
	}
	insert := regexp.QuoteMeta(`INSERT INTO news_articles (id, title, content, url, embedding)`)
	mock.ExpectBegin()
	for _, d := range docs {
		mock.ExpectExec(insert).
			WithArgs(d.ID, d.Title, d.Content, d.URL, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := p.Upsert(t.Context(), docs); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPgvectorUpsertRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	p := &Pgvector{DB: db}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO news_articles`)).WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	err = p.Upsert(t.Context(), []models.Document{{ID: "id-1", Content: "x", Vector: vec(0.1)}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPgvectorEnsureCollection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION IF NOT EXISTS vector`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS news_articles`)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := (&Pgvector{DB: db}).EnsureCollection(t.Context()); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

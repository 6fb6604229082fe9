// Package store opens the source SQLite database, writes each document's
// final snapshot into the working tree, and builds the in-memory
// document/revision table the driver replays.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alitto/pond"
	"github.com/sirupsen/logrus"

	"github.com/bolt-blue/c9rev2git/internal/config"
	"github.com/bolt-blue/c9rev2git/internal/ot"
	"github.com/bolt-blue/c9rev2git/internal/pathtree"
)

// ErrStoreOpen is the sentinel for StoreOpenFailed.
var ErrStoreOpen = errors.New("store open failed")

// ErrStoreQuery is the sentinel for StoreQueryFailed.
var ErrStoreQuery = errors.New("store query failed")

// Revision is a parsed, in-memory revision: a revision number and its
// decoded Operation.
type Revision struct {
	RevNum int
	Op     ot.Operation
}

// Document is the in-memory representation of one row of the Documents
// table plus its ordered Revisions.
type Document struct {
	ID        int
	Path      string
	Contents  []byte
	RevNum    int
	Revisions []Revision
}

// Load opens the SQLite database at dbPath and ingests it: Documents rows
// are written to repoDir/<path> (creating parent directories as needed)
// and returned in id-ascending order; each document's non-empty
// Revisions are attached in (document_id, revNum) order.
//
// onParseErr resolves how an OperationMalformed error is handled:
// PolicyAbort (the default) returns the error immediately; PolicySkip logs
// a warning and treats the offending document as having zero stored
// revisions (its already-written final snapshot stands as-is).
//
// The returned pathtree.Summary lets the driver log a count of the
// directories and files ingestion created.
func Load(dbPath, repoDir string, onParseErr config.ErrorPolicy, logger *logrus.Logger) ([]*Document, pathtree.Summary, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, pathtree.Summary{}, fmt.Errorf("%w: open %s: %v", ErrStoreOpen, dbPath, err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return nil, pathtree.Summary{}, fmt.Errorf("%w: open %s: %v", ErrStoreOpen, dbPath, err)
	}

	docs, byID, tree, err := loadDocuments(db, repoDir)
	if err != nil {
		return nil, pathtree.Summary{}, err
	}
	if err := loadRevisions(db, byID, onParseErr, logger); err != nil {
		return nil, pathtree.Summary{}, err
	}
	return docs, tree.Summary(), nil
}

func loadDocuments(db *sql.DB, repoDir string) ([]*Document, map[int]*Document, pathtree.Tree, error) {
	var tree pathtree.Tree

	rows, err := db.Query(`SELECT id, path, contents, revNum FROM Documents ORDER BY id ASC`)
	if err != nil {
		return nil, nil, tree, fmt.Errorf("%w: query documents: %v", ErrStoreQuery, err)
	}
	defer rows.Close()

	var docs []*Document
	byID := make(map[int]*Document)
	for rows.Next() {
		d := &Document{}
		if err := rows.Scan(&d.ID, &d.Path, &d.Contents, &d.RevNum); err != nil {
			return nil, nil, tree, fmt.Errorf("%w: scan document row: %v", ErrStoreQuery, err)
		}
		fullPath := filepath.Join(repoDir, d.Path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return nil, nil, tree, fmt.Errorf("%w: create directory for %s: %v", ErrStoreQuery, d.Path, err)
		}
		if err := os.WriteFile(fullPath, d.Contents, 0644); err != nil {
			return nil, nil, tree, fmt.Errorf("%w: write %s: %v", ErrStoreQuery, d.Path, err)
		}
		tree.AddFile(d.Path)
		docs = append(docs, d)
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, nil, tree, fmt.Errorf("%w: %v", ErrStoreQuery, err)
	}
	return docs, byID, tree, nil
}

type revisionRow struct {
	revNum    int
	operation string
}

// loadRevisions queries the Revisions table and attaches decoded
// Revisions to each Document in byID. Decoding every row for a document
// is embarrassingly parallel, a pure function of that row's raw operation
// string, so it is fanned out across a worker pool
// (github.com/alitto/pond) and reassembled in revNum order before being
// appended. This is purely an ingestion-internal optimisation: replay
// itself remains strictly sequential.
func loadRevisions(db *sql.DB, byID map[int]*Document, onParseErr config.ErrorPolicy, logger *logrus.Logger) error {
	rows, err := db.Query(`SELECT document_id, revNum, operation FROM Revisions ORDER BY document_id ASC, revNum ASC`)
	if err != nil {
		return fmt.Errorf("%w: query revisions: %v", ErrStoreQuery, err)
	}
	defer rows.Close()

	byDoc := make(map[int][]revisionRow)
	var order []int
	for rows.Next() {
		var docID, revNum int
		var operation string
		if err := rows.Scan(&docID, &revNum, &operation); err != nil {
			return fmt.Errorf("%w: scan revision row: %v", ErrStoreQuery, err)
		}
		if operation == "[]" {
			continue // no-op revision, omitted during ingestion
		}
		if _, seen := byDoc[docID]; !seen {
			order = append(order, docID)
		}
		byDoc[docID] = append(byDoc[docID], revisionRow{revNum: revNum, operation: operation})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreQuery, err)
	}

	pool := pond.New(runtime.NumCPU(), 0, pond.MinWorkers(1))
	defer pool.StopAndWait()

	for _, docID := range order {
		doc, ok := byID[docID]
		if !ok {
			continue // a revision for a document not present in Documents; nothing to attach to
		}
		items := byDoc[docID]
		decoded := make([]ot.Operation, len(items))
		decodeErrs := make([]error, len(items))

		var wg sync.WaitGroup
		for i, item := range items {
			i, item := i, item
			wg.Add(1)
			pool.Submit(func() {
				defer wg.Done()
				op, err := ot.Parse(item.operation)
				decoded[i] = op
				decodeErrs[i] = err
			})
		}
		wg.Wait()

		malformed := false
		for i, item := range items {
			if decodeErrs[i] != nil {
				if onParseErr == config.PolicySkip {
					if logger != nil {
						logger.Warnf("skipping document %s (id %d): %v", doc.Path, doc.ID, decodeErrs[i])
					}
					doc.Revisions = nil
					malformed = true
					break
				}
				return decodeErrs[i]
			}
			doc.Revisions = append(doc.Revisions, Revision{RevNum: item.revNum, Op: decoded[i]})
		}
		if malformed {
			continue
		}
	}
	return nil
}

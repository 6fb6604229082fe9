// Package driver replays each document's revision log: for every
// document it runs the Reset Classifier, then either truncates or
// invokes the Inverse Replayer, then the Forward Replayer, invoking the
// Commit Driver after every step.
package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/bolt-blue/c9rev2git/internal/config"
	"github.com/bolt-blue/c9rev2git/internal/ot"
	"github.com/bolt-blue/c9rev2git/internal/replay"
	"github.com/bolt-blue/c9rev2git/internal/store"
	"github.com/bolt-blue/c9rev2git/internal/vcs"
)

// Run replays every document in ingest order against repo, whose working
// tree is repoDir. Documents are processed one at a time: the working
// tree for document j is untouched while document i (i != j) is being
// replayed.
func Run(docs []*store.Document, repo *vcs.Repo, repoDir string, cfg *config.Config, logger *logrus.Logger) error {
	for _, doc := range docs {
		if err := replayDocument(doc, repo, repoDir, cfg, logger); err != nil {
			return fmt.Errorf("document %s: %w", doc.Path, err)
		}
	}
	return nil
}

func replayDocument(doc *store.Document, repo *vcs.Repo, repoDir string, cfg *config.Config, logger *logrus.Logger) error {
	fullPath := filepath.Join(repoDir, doc.Path)

	if len(doc.Revisions) == 0 {
		// A document with zero stored revisions contributes exactly one
		// commit of its final snapshot, already on disk from ingestion.
		return repo.Commit(doc.Path, doc.RevNum)
	}

	ops := make([]ot.Operation, len(doc.Revisions))
	for i, r := range doc.Revisions {
		ops[i] = r.Op
	}

	var initial []byte
	if replay.Classify(ops[0]) {
		// The first revision is Insert-only: there was no prior content,
		// so truncating is equivalent to (and cheaper than) inverse replay.
		if err := writeFile(fullPath, nil); err != nil {
			return err
		}
	} else {
		final, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", vcs.ErrIO, doc.Path, err)
		}
		state, err := replay.InverseChain(final, ops)
		if err != nil {
			if skippable(err, cfg) {
				logger.Warnf("skipping document %s: %v", doc.Path, err)
				return nil
			}
			return err
		}
		initial = state
		if err := writeFile(fullPath, initial); err != nil {
			return err
		}
	}

	err := replay.ForwardChain(initial, ops, true, func(state []byte, index int) error {
		if err := writeFile(fullPath, state); err != nil {
			return err
		}
		return repo.Commit(doc.Path, doc.Revisions[index].RevNum)
	})
	if err != nil {
		if skippable(err, cfg) {
			logger.Warnf("skipping remainder of document %s: %v", doc.Path, err)
			return nil
		}
		return err
	}
	return nil
}

func skippable(err error, cfg *config.Config) bool {
	return errors.Is(err, replay.ErrStateMismatch) && cfg.OnStateErr == config.PolicySkip
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", vcs.ErrIO, path, err)
	}
	return nil
}

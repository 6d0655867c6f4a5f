// Package sync reconciles configured sources with the recall queue:
// concepts found in source files are promoted into reviewable items, and
// items whose backing content has disappeared are removed.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kaushik-93/Engram-sub000/internal/content"
	"github.com/Kaushik-93/Engram-sub000/internal/domain"
	"github.com/Kaushik-93/Engram-sub000/internal/gitsource"
	"github.com/Kaushik-93/Engram-sub000/internal/parser"
	"github.com/Kaushik-93/Engram-sub000/internal/storage"
)

// Run iterates over all configured sources and reconciles each. Git sources
// are cloned or pulled into reposDir first. Per-source failures are logged
// and skipped; one broken source does not stop the rest.
func Run(db *storage.DB, reposDir string) error {
	slog.Info("starting sync for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("getting sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("creating repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == "git" {
			localPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("failed to determine local path for git source", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localPath); err != nil {
				slog.Error("failed to sync git source", "url", source.Path, "error", err)
				continue
			}
			dir = localPath
		}

		reconcileSource(db, source, dir)
	}
	slog.Info("sync complete")
	return nil
}

// reconcileSource walks dir for concept files, promotes unseen concepts into
// the recall queue, and deletes items whose content is gone. Newly promoted
// items are due immediately with a zero interval and floor stability.
func reconcileSource(db *storage.DB, source storage.Source, dir string) {
	var promoted, parseErrors int
	foundHashes := make(map[string]bool)
	now := time.Now().UTC()

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		concepts, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			slog.Warn("failed to parse concept file", "path", path, "error", parseErr)
			parseErrors++
			return nil
		}

		for _, c := range concepts {
			c.Hash = content.Hash(c)
			foundHashes[c.Hash] = true

			existing, findErr := db.FindItemByContent(source.ID, c.Hash)
			if findErr != nil {
				slog.Warn("failed to check for existing item", "hash", c.Hash, "error", findErr)
				continue
			}
			if existing != nil {
				continue
			}

			item := domain.Item{
				ID:          uuid.NewString(),
				SourceID:    source.ID,
				ContentHash: c.Hash,
				Concept:     c.Text,
				Clue:        c.Clue,
				Stability:   1.0,
				NextDueAt:   now,
			}
			if insertErr := db.InsertItem(item); insertErr != nil {
				slog.Warn("failed to promote concept", "hash", c.Hash, "error", insertErr)
				continue
			}
			promoted++
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("failed to walk source directory", "path", dir, "error", walkErr)
		return
	}

	items, err := db.ItemsBySourceID(source.ID)
	if err != nil {
		slog.Error("failed to get items for source", "source_id", source.ID, "error", err)
		return
	}

	var orphaned int
	for _, item := range items {
		if foundHashes[item.ContentHash] {
			continue
		}
		slog.Info("removing orphaned item", "id", item.ID, "hash", item.ContentHash)
		if err := db.DeleteItemByID(item.ID); err != nil {
			slog.Warn("failed to delete orphaned item", "id", item.ID, "error", err)
			continue
		}
		orphaned++
	}

	if err := db.UpdateSourceLastSynced(source.ID); err != nil {
		slog.Warn("failed to update last synced for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"source_id", source.ID,
		"promoted", promoted,
		"orphaned_deleted", orphaned,
		"parse_errors", parseErrors,
	)
}

// gitURLToLocalPath maps a git URL to a stable checkout location under
// baseDir, handling both https URLs and scp-style ssh addresses.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && (parsedURL.Scheme == "https" || parsedURL.Scheme == "http") {
		sanitized := strings.TrimSuffix(parsedURL.Path, ".git")
		return filepath.Join(baseDir, parsedURL.Host, sanitized), nil
	}

	// git@host:owner/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.Split(repoURL, ":")
		if len(parts) == 2 {
			hostAndUser := strings.Split(parts[0], "@")
			if len(hostAndUser) == 2 {
				repoPath := strings.TrimSuffix(parts[1], ".git")
				return filepath.Join(baseDir, hostAndUser[1], repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

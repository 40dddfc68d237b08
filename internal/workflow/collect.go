// Package workflow strings the build pipeline together for the commands:
// file discovery, index construction, statistics, serialization and the
// interactive query loop.
package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Collection is the set of files picked for a build, in directory order.
type Collection struct {
	Paths      []string
	TotalBytes int64
}

// CollectFiles returns the regular files directly under dir whose size is
// at least minSizeKB kilobytes. Subdirectories are not descended into. A
// collection smaller than minCount is logged but still returned.
func CollectFiles(dir string, minSizeKB int64, minCount int, logger *slog.Logger) (Collection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Collection{}, fmt.Errorf("reading texts directory %s: %w", dir, err)
	}
	minBytes := minSizeKB * 1024
	var c Collection
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			logger.Warn("cannot stat file", "name", e.Name(), "error", err)
			continue
		}
		if info.Size() < minBytes {
			logger.Debug("file below minimum size", "name", e.Name(), "bytes", info.Size())
			continue
		}
		c.Paths = append(c.Paths, filepath.Join(dir, e.Name()))
		c.TotalBytes += info.Size()
	}
	if len(c.Paths) < minCount {
		logger.Warn("fewer files than recommended",
			"found", len(c.Paths),
			"recommended", minCount,
			"min_size_kb", minSizeKB,
		)
	}
	logger.Info("collected files", "dir", dir, "files", len(c.Paths), "bytes", c.TotalBytes)
	return c, nil
}

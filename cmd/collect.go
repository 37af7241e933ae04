package cmd

import (
	"context"
	"fmt"
	"io"
	"log"

	jsoniter "github.com/json-iterator/go"

	"github.com/rm-hull/heat-metadata-collector/internal/gcore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Collect performs a single collection and writes the merged list to out. When
// dbPath is set the result is also recorded as a snapshot.
func Collect(ctx context.Context, out io.Writer, dbPath string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	collector := gcore.NewCollector(cfg, cfg.DeploymentKeys)
	entries, err := collector.Collect(ctx)
	if err != nil {
		return err
	}

	if dbPath != "" {
		repo, err := openRepository(dbPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(); err != nil {
				log.Printf("failed to close repository: %v", err)
			}
		}()

		changed, err := repo.Store(collector.Name(), entries)
		if err != nil {
			return fmt.Errorf("failed to store snapshot: %w", err)
		}
		log.Printf("snapshot changed: %t", changed)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

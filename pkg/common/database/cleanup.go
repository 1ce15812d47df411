package database

import (
	"fmt"

	"bookdata/pkg/common/logger"
	"bookdata/pkg/common/worker"
)

// ListCatalogs returns the catalogs on d's server whose name starts with
// prefix.
func ListCatalogs(d Descriptor, prefix string) ([]string, error) {
	dl, err := dialectFor(d.Engine)
	if err != nil {
		return nil, err
	}
	names, err := dl.list(d, prefix, newDiagnostics(nil, d.Catalog))
	if err != nil {
		return nil, engineError("list databases", prefix, err)
	}
	return names, nil
}

// DeleteAll drops every catalog whose name starts with prefix, running up to
// workers drops at once, and returns the catalogs it dropped. An empty
// prefix is refused.
func DeleteAll(d Descriptor, prefix string, workers int) ([]string, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: refusing to delete databases without a name prefix", ErrInvalidIdentity)
	}
	names, err := ListCatalogs(d, prefix)
	if err != nil {
		return nil, err
	}
	dl, _ := dialectFor(d.Engine)

	dropped := make([]bool, len(names))
	jobs := make([]worker.Job, len(names))
	for i, name := range names {
		jobs[i] = func() error {
			target := d.WithCatalog(name)
			if err := dl.drop(target, newDiagnostics(nil, name)); err != nil {
				return engineError("drop database", name, err)
			}
			dropped[i] = true
			return nil
		}
	}

	stats, err := worker.RunAll(workers, jobs)
	logger.WithComponent("database").Info().
		Str("prefix", prefix).
		Int("dropped", stats.Completed-stats.Failed).
		Int("failed", stats.Failed).
		Dur("took", stats.Duration).
		Msg("deleted unit test databases")

	var out []string
	for i, ok := range dropped {
		if ok {
			out = append(out, names[i])
		}
	}
	return out, err
}

package fs

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DatabaseExt is the file extension used for file-backed catalogs.
const DatabaseExt = ".db"

// sidecar suffixes sqlite may leave next to a database file
var sidecars = []string{"-journal", "-wal", "-shm"}

// CatalogDir manages the directory holding file-backed databases, one file
// per catalog.
type CatalogDir struct {
	fs   afero.Fs
	root string
}

// New returns a CatalogDir rooted at root on the OS filesystem.
func New(root string) *CatalogDir {
	return NewWithFs(afero.NewOsFs(), root)
}

// NewWithFs returns a CatalogDir on a custom afero filesystem.
func NewWithFs(fs afero.Fs, root string) *CatalogDir {
	return &CatalogDir{fs: fs, root: root}
}

// GetFs returns the underlying Afero filesystem
func (d *CatalogDir) GetFs() afero.Fs {
	return d.fs
}

// Root returns the directory path.
func (d *CatalogDir) Root() string {
	return d.root
}

// Ensure creates the directory if it does not exist.
func (d *CatalogDir) Ensure() error {
	if err := d.fs.MkdirAll(d.root, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// Path returns the file path for a catalog.
func (d *CatalogDir) Path(catalog string) string {
	return filepath.Join(d.root, catalog+DatabaseExt)
}

// Exists reports whether the catalog file exists.
func (d *CatalogDir) Exists(catalog string) (bool, error) {
	return afero.Exists(d.fs, d.Path(catalog))
}

// Create writes an empty catalog file. A zero-length file is a valid empty
// sqlite database. Existing files are left untouched.
func (d *CatalogDir) Create(catalog string) error {
	if err := d.Ensure(); err != nil {
		return err
	}
	p := d.Path(catalog)
	if exists, _ := afero.Exists(d.fs, p); exists {
		return nil
	}
	f, err := d.fs.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	return f.Close()
}

// Remove deletes the catalog file and its journal sidecars. Missing files
// are not an error.
func (d *CatalogDir) Remove(catalog string) error {
	p := d.Path(catalog)
	for _, name := range append([]string{p}, sidecarPaths(p)...) {
		if err := d.fs.Remove(name); err != nil {
			if exists, _ := afero.Exists(d.fs, name); exists {
				return fmt.Errorf("remove %s: %w", name, err)
			}
		}
	}
	return nil
}

// List returns the catalogs whose name starts with prefix, sorted.
func (d *CatalogDir) List(prefix string) ([]string, error) {
	exists, err := afero.DirExists(d.fs, d.root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	entries, err := afero.ReadDir(d.fs, d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	var catalogs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, DatabaseExt) {
			continue
		}
		catalog := strings.TrimSuffix(name, DatabaseExt)
		if strings.HasPrefix(catalog, prefix) {
			catalogs = append(catalogs, catalog)
		}
	}
	sort.Strings(catalogs)
	return catalogs, nil
}

func sidecarPaths(p string) []string {
	out := make([]string, 0, len(sidecars))
	for _, s := range sidecars {
		out = append(out, p+s)
	}
	return out
}

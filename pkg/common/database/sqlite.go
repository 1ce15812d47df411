package database

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookdata/pkg/common/fs"
)

const sqliteMaxCatalog = 200

// sqliteDialect stores each catalog as <Host>/<catalog>.db.
type sqliteDialect struct{}

func (sqliteDialect) dir(d Descriptor) *fs.CatalogDir {
	root := d.Host
	if root == "" {
		root = "."
	}
	return fs.New(root)
}

func (sqliteDialect) validateCatalog(catalog string) error {
	switch {
	case catalog == "":
		return fmt.Errorf("%w: empty catalog name", ErrInvalidIdentity)
	case len(catalog) > sqliteMaxCatalog:
		return fmt.Errorf("%w: catalog %q is longer than %d bytes", ErrInvalidIdentity, catalog, sqliteMaxCatalog)
	case !utf8.ValidString(catalog):
		return fmt.Errorf("%w: catalog %q is not valid UTF-8", ErrInvalidIdentity, catalog)
	case catalog == "." || catalog == ".." || strings.TrimSpace(catalog) != catalog:
		return fmt.Errorf("%w: catalog %q is not a usable file name", ErrInvalidIdentity, catalog)
	}
	if i := strings.IndexAny(catalog, `/\:*?"<>|#%`); i >= 0 {
		return fmt.Errorf("%w: catalog %q contains %q", ErrInvalidIdentity, catalog, catalog[i])
	}
	for _, r := range catalog {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: catalog %q contains a control character", ErrInvalidIdentity, catalog)
		}
	}
	if strings.Contains(catalog, "..") {
		return fmt.Errorf("%w: catalog %q has an empty name segment", ErrInvalidIdentity, catalog)
	}
	return nil
}

func (s sqliteDialect) dsn(d Descriptor) string {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "1")
	for _, kv := range d.Extra {
		params.Set(kv.Key, kv.Value)
	}
	return "file:" + s.dir(d).Path(d.Catalog) + "?" + params.Encode()
}

func (s sqliteDialect) dialector(d Descriptor) gorm.Dialector {
	return sqlite.Open(s.dsn(d))
}

func (s sqliteDialect) ping(d Descriptor, _ gormlogger.Interface) error {
	if err := s.dir(d).Ensure(); err != nil {
		return fmt.Errorf("%w: data directory %q: %w", ErrConnection, d.Host, err)
	}
	return nil
}

func (s sqliteDialect) exists(d Descriptor, _ gormlogger.Interface) (bool, error) {
	return s.dir(d).Exists(d.Catalog)
}

func (s sqliteDialect) create(d Descriptor, _ gormlogger.Interface) error {
	return s.dir(d).Create(d.Catalog)
}

func (s sqliteDialect) drop(d Descriptor, _ gormlogger.Interface) error {
	return s.dir(d).Remove(d.Catalog)
}

func (s sqliteDialect) list(d Descriptor, prefix string, _ gormlogger.Interface) ([]string, error) {
	return s.dir(d).List(prefix)
}

// clean drops views, triggers and tables on one pinned connection, since
// the foreign_keys pragma is per connection.
func (sqliteDialect) clean(db *gorm.DB) error {
	return db.Connection(func(tx *gorm.DB) error {
		var objects []struct {
			Type string
			Name string
		}
		err := tx.Raw(`SELECT type, name FROM sqlite_master
			WHERE type IN ('view', 'trigger', 'table') AND name NOT LIKE 'sqlite_%'
			ORDER BY CASE type WHEN 'trigger' THEN 0 WHEN 'view' THEN 1 ELSE 2 END`).Scan(&objects).Error
		if err != nil {
			return err
		}
		if err := tx.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
			return err
		}
		for _, o := range objects {
			stmt := fmt.Sprintf("DROP %s IF EXISTS %s", strings.ToUpper(o.Type), quoteSQLite(o.Name))
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return tx.Exec("PRAGMA foreign_keys = ON").Error
	})
}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

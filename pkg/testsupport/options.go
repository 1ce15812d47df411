package testsupport

import (
	"fmt"
	"path/filepath"

	"bookdata/pkg/common"
	"bookdata/pkg/common/config"
	"bookdata/pkg/common/database"
	"bookdata/pkg/common/logger"
)

// Builder turns identities into connection descriptors using the template
// connection string of a settings file. It never changes the template.
type Builder struct {
	settings *config.Settings
	template database.Descriptor
}

// NewBuilder parses the template connection string of s. A relative sqlite
// data directory is taken relative to the settings file.
func NewBuilder(s *config.Settings) (*Builder, error) {
	d, err := database.ParseDescriptor(s.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s connection string in %s: %w", config.ConnectionStringName, s.File, err)
	}
	if d.Engine == database.EngineSQLite {
		switch {
		case d.Host == "":
			d.Host = s.Dir
		case !filepath.IsAbs(d.Host):
			d.Host = filepath.Join(s.Dir, d.Host)
		}
	}
	return &Builder{settings: s, template: d}, nil
}

// Template returns a copy of the parsed template.
func (b *Builder) Template() database.Descriptor { return b.template.Clone() }

// Settings returns the settings the builder was created from.
func (b *Builder) Settings() *config.Settings { return b.settings }

// Prefix is the catalog prefix shared by every unit test database.
func (b *Builder) Prefix() string {
	if b.template.Catalog == "" {
		return ""
	}
	return b.template.Catalog + "."
}

// Descriptor returns the template pointed at the catalog of identity.
func (b *Builder) Descriptor(identity string) (database.Descriptor, error) {
	if identity == "" {
		return database.Descriptor{}, fmt.Errorf("%w: empty identity", database.ErrInvalidIdentity)
	}
	d := b.template.WithCatalog(b.Prefix() + identity)
	if err := d.Validate(); err != nil {
		return database.Descriptor{}, err
	}
	return d, nil
}

// Options builds handle options for identity.
func (b *Builder) Options(identity string, opts ...database.Option) (database.Options, error) {
	d, err := b.Descriptor(identity)
	if err != nil {
		return database.Options{}, err
	}
	return database.NewOptions(d, opts...)
}

// DeleteAll drops every catalog under Prefix and returns their names.
func (b *Builder) DeleteAll() ([]string, error) {
	return database.DeleteAll(b.template, b.Prefix(), b.settings.TestSupport.CleanupWorkers)
}

// Default returns a builder over the process-wide settings, initialising
// logging from them on first use.
func Default() (*Builder, error) {
	s, err := common.Init()
	if err != nil {
		return nil, err
	}
	return NewBuilder(s)
}

// UniqueClassOptions returns options for the database shared by the tests of
// className.
func UniqueClassOptions(className string, opts ...database.Option) (database.Options, error) {
	return uniqueOptions(DeriveIdentity(className, ""), opts)
}

// UniqueMethodOptions returns options for the database of one test method.
func UniqueMethodOptions(className, methodName string, opts ...database.Option) (database.Options, error) {
	return uniqueOptions(DeriveIdentity(className, methodName), opts)
}

func uniqueOptions(identity string, opts []database.Option) (database.Options, error) {
	b, err := Default()
	if err != nil {
		return database.Options{}, err
	}
	return b.Options(identity, opts...)
}

// DeleteAllUnitTestDatabases drops every database created through the
// process-wide settings.
func DeleteAllUnitTestDatabases() ([]string, error) {
	b, err := Default()
	if err != nil {
		return nil, err
	}
	dropped, err := b.DeleteAll()
	logger.WithComponent("testsupport").Info().Int("count", len(dropped)).Msg("unit test databases deleted")
	return dropped, err
}

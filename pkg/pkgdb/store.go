package pkgdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"
)

// Save writes db to path as gzip-compressed YAML. The file is replaced
// atomically so readers never observe a partial snapshot.
func Save(db *Database, path string) error {
	t, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer t.Cleanup()

	gz := gzip.NewWriter(t)
	enc := yaml.NewEncoder(gz)
	enc.SetIndent(2)
	if err := enc.Encode(db); err != nil {
		return fmt.Errorf("encoding package database: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding package database: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compressing package database: %w", err)
	}

	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot written by Save. Values are decoded as plain data;
// nothing in the document is evaluated.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer gz.Close()

	var db Database
	if err := yaml.NewDecoder(gz).Decode(&db); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	db.init()

	return &db, nil
}

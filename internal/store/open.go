package store

import (
	"fmt"
	"strings"

	"github.com/ppiankov/casedesk/internal/model"
)

// Open builds the configured relational store and blob store. A Supabase
// backend without credentials returns ErrNotConfigured.
func Open(cfg model.StoreConfig) (Store, BlobStore, error) {
	backend := strings.ToLower(cfg.Backend)

	var (
		st  Store
		err error
	)
	switch backend {
	case "", "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "casedesk.db"
		}
		st, err = OpenSQLite(path)

	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, nil, fmt.Errorf("mysql backend requires store.mysql_dsn")
		}
		st, err = OpenMySQL(cfg.MySQLDSN, cfg.MySQLReplicas)

	case "supabase":
		st, err = NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, nil)

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s (supported: sqlite, mysql, supabase)", cfg.Backend)
	}
	if err != nil {
		return nil, nil, err
	}

	return st, OpenBlobs(cfg), nil
}

// OpenBlobs picks Supabase Storage when credentials exist, else a local directory
func OpenBlobs(cfg model.StoreConfig) BlobStore {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "petition-files"
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		return NewSupabaseBlobStore(cfg.SupabaseURL, cfg.SupabaseKey, bucket, nil)
	}

	dir := cfg.BlobDir
	if dir == "" {
		dir = bucket
	}
	return NewDiskBlobStore(dir)
}

package core

import (
	"context"
	"time"
)

const FormatCSV = "csv"

type (
	// TreeEntry is one directory of a storage listing.
	TreeEntry struct {
		Dir       string
		Filenames []string
	}

	ReadOptions struct {
		Format string
		// TTL allows a caching Storage to serve repeated reads of the same
		// (path, format) pair without re-fetching for the given duration.
		// Zero disables caching for the read.
		TTL time.Duration
	}

	// Storage is the object-storage capability surface consumed by the
	// snapshot resolver. Implementations may cache reads; listing carries
	// no existence guarantee beyond the moment it is taken.
	Storage interface {
		ListTree(ctx context.Context, root string) ([]TreeEntry, error)
		ReadTable(ctx context.Context, path string, opts ReadOptions) (Table, error)
	}
)

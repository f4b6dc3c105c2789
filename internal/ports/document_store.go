package ports

import "context"

// DocumentStore persists JSON documents addressed by file name.
//
// Load decodes the named document into dst and reports whether it was found
// and well formed. A missing or corrupt document is not an error; callers
// apply their own default when Load returns false.
type DocumentStore interface {
	Load(ctx context.Context, name string, dst any) bool
	Save(ctx context.Context, name string, value any) error
}

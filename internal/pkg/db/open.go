package db

import (
	"fmt"
	"strings"
)

// Backend names accepted in the database URI scheme.
const (
	BackendMongo    = "mongodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// BackendFor picks the storage backend from the connection string scheme.
// Only the scheme is read: Mongo multi-host lists are not valid URLs.
func BackendFor(uri string) (string, error) {
	scheme, _, ok := strings.Cut(strings.TrimSpace(uri), "://")
	if !ok {
		return "", fmt.Errorf("invalid database uri: missing scheme")
	}
	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "memory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unsupported database uri scheme %q", scheme)
	}
}

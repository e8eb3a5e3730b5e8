// Package resource assigns stable identifiers to resource keys for the lifetime of a
// single graph generation run.
package resource

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ErrIdentifierAssignment is returned when a fresh identifier cannot be minted or is
// not an absolute URI.
var ErrIdentifierAssignment = errors.New("identifier assignment failed")

// Minter produces a new, globally unique identifier.
type Minter func() (string, error)

// UUIDMinter mints urn:uuid identifiers from random (version 4) UUIDs.
func UUIDMinter() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.URN(), nil
}

// Key builds the registry key for a resource: the entity path relative to the root's
// parent directory, plus "#specifier" when the entity yields several resources.
func Key(rel, specifier string) string {
	if specifier == "" {
		return rel
	}
	return rel + "#" + specifier
}

// Registry memoizes key to identifier assignments. It is not safe for concurrent use;
// each run owns one.
type Registry struct {
	mint Minter
	ids  map[string]string
}

// NewRegistry creates an empty registry. A nil minter uses UUIDMinter.
func NewRegistry(mint Minter) *Registry {
	if mint == nil {
		mint = UUIDMinter
	}
	return &Registry{mint: mint, ids: make(map[string]string)}
}

// FindOrAssignURI returns the identifier for key, minting one on first use. Trailing
// separators are ignored so "a/b/" and "a/b" name the same resource.
func (r *Registry) FindOrAssignURI(key string) (string, error) {
	key = normalize(key)
	if id, ok := r.ids[key]; ok {
		return id, nil
	}

	id, err := r.mint()
	if err != nil {
		return "", fmt.Errorf("%w: key %q: %v", ErrIdentifierAssignment, key, err)
	}
	u, err := url.Parse(id)
	if err != nil || !u.IsAbs() {
		return "", fmt.Errorf("%w: key %q: %q is not an absolute URI", ErrIdentifierAssignment, key, id)
	}

	r.ids[key] = id
	return id, nil
}

// Lookup returns the identifier already assigned to key.
func (r *Registry) Lookup(key string) (string, bool) {
	id, ok := r.ids[normalize(key)]
	return id, ok
}

// Len returns the number of assigned identifiers.
func (r *Registry) Len() int { return len(r.ids) }

func normalize(key string) string {
	for len(key) > 1 && (strings.HasSuffix(key, "/") || strings.HasSuffix(key, string(os.PathSeparator))) {
		key = key[:len(key)-1]
	}
	return key
}

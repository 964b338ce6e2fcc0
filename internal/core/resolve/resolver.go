// Package resolve implements cache-backed resolution of remote CRM records.
//
// A Resolver wraps one remote provider behind the shared cache so repeated
// lookups during a sync pass cost one remote round-trip. Index lookups cache
// the whole collection under a single key because the backing remote call is
// bulk and cheap to cache wholesale; id and criteria lookups cache per key.
package resolve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/crmsync/internal/ports/secondary"
)

// DefaultTTL is the cache lifetime used when a Resolver is built with a
// non-positive TTL.
const DefaultTTL = time.Hour

// KeyFunc derives the index key for one remote record (name, code,
// formatted name, ...).
type KeyFunc func(secondary.RemoteRecord) string

// Option configures a Resolver.
type Option func(*Resolver)

// WithNormalizer installs a normalization step applied to index keys on
// both the build and lookup side, e.g. strings.ToLower for
// case-insensitive resolution. Cache storage stays a flat map of the
// normalized keys.
func WithNormalizer(normalize func(string) string) Option {
	return func(r *Resolver) {
		r.normalize = normalize
	}
}

// Resolver resolves remote records by index key, id, or criteria filter,
// memoizing results in the shared cache.
type Resolver struct {
	name      string // resolver identity, prefixes every cache key
	provider  secondary.RemoteProvider
	cache     secondary.Cache
	ttl       time.Duration
	keyFunc   KeyFunc
	normalize func(string) string
}

// New creates a Resolver. name must be unique per provider so cache keys of
// different resolvers never collide. keyFunc may be nil if ResolveByIndex
// is never used.
func New(name string, provider secondary.RemoteProvider, cache secondary.Cache, ttl time.Duration, keyFunc KeyFunc, opts ...Option) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Resolver{
		name:     name,
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		keyFunc:  keyFunc,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveByIndex returns the remote record whose index key equals indexKey,
// or (nil, nil) if none exists. On a cache miss the whole collection is
// fetched once and indexed under one cache key.
func (r *Resolver) ResolveByIndex(ctx context.Context, indexKey string) (*secondary.RemoteRecord, error) {
	if r.keyFunc == nil {
		return nil, fmt.Errorf("resolver %s has no index key function", r.name)
	}

	v, err := r.cache.Remember(r.name+":index", r.ttl, func() (any, error) {
		records, err := r.provider.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		index := make(map[string]secondary.RemoteRecord, len(records))
		for _, rec := range records {
			index[r.normKey(r.keyFunc(rec))] = rec
		}
		return index, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build index for resolver %s: %w", r.name, err)
	}

	index, ok := v.(map[string]secondary.RemoteRecord)
	if !ok {
		return nil, fmt.Errorf("resolver %s: unexpected cached index type %T", r.name, v)
	}
	if rec, ok := index[r.normKey(indexKey)]; ok {
		return &rec, nil
	}
	return nil, nil
}

// ResolveByID returns the remote record with the given id, or (nil, nil)
// if the remote system has no such record. A blank id short-circuits to
// (nil, nil) without touching the network. The possibly-nil result is
// cached either way.
func (r *Resolver) ResolveByID(ctx context.Context, id string) (*secondary.RemoteRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	v, err := r.cache.Remember(r.name+":id:"+id, r.ttl, func() (any, error) {
		rec, err := r.provider.FetchByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s by id %s: %w", r.name, id, err)
	}

	rec, _ := v.(*secondary.RemoteRecord)
	return rec, nil
}

// ResolveSingleByCriteria returns the single remote record matching the
// filter, (nil, nil) when nothing matches, or a MultipleEntitiesFoundError
// when the match is ambiguous. Empty and single results are cached; the
// ambiguous case is recomputed on every call.
func (r *Resolver) ResolveSingleByCriteria(ctx context.Context, criteria secondary.Criteria) (*secondary.RemoteRecord, error) {
	key := r.name + ":criteria:" + hashCriteria(criteria)

	if v, ok := r.cache.Get(key); ok {
		rec, _ := v.(*secondary.RemoteRecord)
		return rec, nil
	}

	records, err := r.provider.FetchByCriteria(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s by criteria: %w", r.name, err)
	}
	if len(records) > 1 {
		return nil, &MultipleEntitiesFoundError{Resolver: r.name, Count: len(records)}
	}

	var rec *secondary.RemoteRecord
	if len(records) == 1 {
		rec = &records[0]
	}
	r.cache.Remember(key, r.ttl, func() (any, error) {
		return rec, nil
	})
	return rec, nil
}

func (r *Resolver) normKey(key string) string {
	if r.normalize != nil {
		return r.normalize(key)
	}
	return key
}

// hashCriteria produces a deterministic digest of a filter, independent of
// map iteration order.
func hashCriteria(criteria secondary.Criteria) string {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, criteria[k])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

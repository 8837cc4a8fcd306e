// Package dataloader provides batch-loading utilities for graph
// entities. It pairs with any DataLoader implementation, such as
// github.com/graph-gophers/dataloader/v7 or
// github.com/vikstrous/dataloadgen: NodeBatch turns a Graph into the
// batch function those libraries consume, and the ordering helpers
// restore the key order batch contracts require.
//
// # Basic usage
//
//	batch := dataloader.NodeBatch[Person](g)
//	people, errs := batch(ctx, []string{"p1", "p2", "p3"})
//
// One round trip to the store serves every id collected into the
// batch, instead of one query per id.
package dataloader

import (
	"context"
	"errors"

	"github.com/syssam/nodus"
	"github.com/syssam/nodus/query"
)

// ErrNotFound is reported for keys absent from a batch result.
var ErrNotFound = errors.New("dataloader: entity not found")

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// BatchFunc loads a batch of entities by their keys. The result slice
// is parallel to keys: same length, same order, with per-key errors.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// NodeBatch returns a BatchFunc that resolves node entities by their
// identifiers in one query. A failed query fails every key of the
// batch; ids without a stored node report ErrNotFound.
func NodeBatch[T any](g *nodus.Graph) BatchFunc[string, *T] {
	return func(ctx context.Context, ids []string) ([]*T, []error) {
		vals := make([]any, len(ids))
		for i, id := range ids {
			vals[i] = id
		}
		rows, err := nodus.Nodes[T](g).Where(query.FieldIn("id", vals...)).All(ctx)
		if err != nil {
			return make([]*T, len(ids)), failAll(len(ids), err)
		}
		return OrderByKeys(ids, rows, identity[T])
	}
}

func identity[T any](v *T) string {
	n, ok := any(v).(interface{ GetID() string })
	if !ok {
		return ""
	}
	return n.GetID()
}

func failAll(n int, err error) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return errs
}

// OrderByKeys reorders entities to match the order of the requested
// keys. Missing entities are zero values with an ErrNotFound in the
// parallel error slice.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// OrderByKeysNoError is OrderByKeys for callers that tolerate missing
// entities, e.g. optional relationship endpoints.
func OrderByKeysNoError[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) []V {
	result, _ := OrderByKeys(keys, values, keyFn)
	return result
}

// GroupByKey groups entities sharing a key, for one-to-many loads:
//
//	rels, _ := g.RelationshipsOf(ctx, person)
//	byStart := dataloader.GroupByKey(rels, func(r nodus.RelationshipInfo) string { return r.StartID })
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys reorders grouped entities to match the requested
// keys; ordered[i] holds the group of keys[i].
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}

// CachePrimer is the cache-priming surface of a DataLoader.
type CachePrimer[K comparable, V any] interface {
	Prime(key K, value V)
}

// PrimeMany primes a loader cache with already-loaded entities, e.g.
// after a SaveAll.
func PrimeMany[K comparable, V any](cache CachePrimer[K, V], values []V, keyFn KeyFunc[K, V]) {
	for _, v := range values {
		cache.Prime(keyFn(v), v)
	}
}

// CacheClearer is the cache-clearing surface of a DataLoader.
type CacheClearer[K comparable] interface {
	Clear(key K)
}

// ClearMany drops keys from a loader cache after their entities were
// mutated or deleted.
func ClearMany[K comparable](cache CacheClearer[K], keys []K) {
	for _, key := range keys {
		cache.Clear(key)
	}
}

// ctxKey carries the request-scoped loader bundle.
type ctxKey struct{}

// WithLoaders injects a loader bundle into the context, typically from
// request middleware so every resolver of one request shares the same
// batches.
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For extracts the loader bundle injected by WithLoaders. The zero
// value is returned when none is present.
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}

// BatchResult pairs one loaded value with its per-key error.
type BatchResult[V any] struct {
	Value V
	Error error
}

// Results zips parallel value and error slices into BatchResults.
func Results[V any](values []V, errs []error) []BatchResult[V] {
	results := make([]BatchResult[V], len(values))
	for i := range values {
		var err error
		if i < len(errs) {
			err = errs[i]
		}
		results[i] = BatchResult[V]{Value: values[i], Error: err}
	}
	return results
}

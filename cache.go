package nodus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/nodus/dialect"
)

// Cache is the interface for caching read-query results.
// Users should implement this interface with their preferred caching
// solution (e.g., Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// cacheKey fingerprints one compiled statement. Keys are prefixed with
// the root label so writes can invalidate per label with DeletePrefix.
func cacheKey(label, queryText string, params map[string]any) string {
	h := sha256.New()
	h.Write([]byte(queryText))
	h.Write([]byte{0})
	// Parameter maps hash in key order so equal statements always
	// produce equal keys.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		if buf, err := msgpack.Marshal(params[name]); err == nil {
			h.Write(buf)
		}
		h.Write([]byte{0})
	}
	return label + ":" + hex.EncodeToString(h.Sum(nil))
}

// cachedValue is the encodable form of one record value. Exactly one of
// the typed fields is set; Kind says which.
type cachedValue struct {
	Kind   uint8 `msgpack:"k"`
	Scalar any   `msgpack:"s,omitempty"`

	Node *dialect.Node         `msgpack:"n,omitempty"`
	Rel  *dialect.Relationship `msgpack:"r,omitempty"`
	Path *cachedPath           `msgpack:"p,omitempty"`
}

type cachedPath struct {
	Nodes []dialect.Node         `msgpack:"n"`
	Rels  []dialect.Relationship `msgpack:"r"`
}

const (
	cachedScalar uint8 = iota
	cachedNode
	cachedRel
	cachedPathKind
)

type cachedRecord struct {
	Keys   []string      `msgpack:"k"`
	Values []cachedValue `msgpack:"v"`
}

// encodeRecords serializes materialized records for the cache. Value
// handles keep their concrete kind through a tagged envelope, since a
// plain any round-trip would flatten them into maps.
func encodeRecords(records []*dialect.Record) ([]byte, error) {
	out := make([]cachedRecord, len(records))
	for i, rec := range records {
		cr := cachedRecord{Keys: rec.Keys, Values: make([]cachedValue, len(rec.Values))}
		for j, v := range rec.Values {
			switch x := v.(type) {
			case dialect.Node:
				cr.Values[j] = cachedValue{Kind: cachedNode, Node: &x}
			case dialect.Relationship:
				cr.Values[j] = cachedValue{Kind: cachedRel, Rel: &x}
			case dialect.Path:
				cr.Values[j] = cachedValue{Kind: cachedPathKind, Path: &cachedPath{Nodes: x.Nodes, Rels: x.Relationships}}
			default:
				cr.Values[j] = cachedValue{Kind: cachedScalar, Scalar: v}
			}
		}
		out[i] = cr
	}
	return msgpack.Marshal(out)
}

// decodeRecords reverses encodeRecords.
func decodeRecords(buf []byte) ([]*dialect.Record, error) {
	var in []cachedRecord
	if err := msgpack.Unmarshal(buf, &in); err != nil {
		return nil, err
	}
	out := make([]*dialect.Record, len(in))
	for i, cr := range in {
		rec := &dialect.Record{Keys: cr.Keys, Values: make([]any, len(cr.Values))}
		for j, cv := range cr.Values {
			switch cv.Kind {
			case cachedNode:
				rec.Values[j] = normalizeNode(*cv.Node)
			case cachedRel:
				rec.Values[j] = normalizeRel(*cv.Rel)
			case cachedPathKind:
				p := dialect.Path{
					Nodes:         make([]dialect.Node, len(cv.Path.Nodes)),
					Relationships: make([]dialect.Relationship, len(cv.Path.Rels)),
				}
				for k, n := range cv.Path.Nodes {
					p.Nodes[k] = normalizeNode(n)
				}
				for k, r := range cv.Path.Rels {
					p.Relationships[k] = normalizeRel(r)
				}
				rec.Values[j] = p
			default:
				rec.Values[j] = normalizeScalar(cv.Scalar)
			}
		}
		out[i] = rec
	}
	return out, nil
}

func normalizeNode(n dialect.Node) dialect.Node {
	n.Props = normalizeProps(n.Props)
	return n
}

func normalizeRel(r dialect.Relationship) dialect.Relationship {
	r.Props = normalizeProps(r.Props)
	return r
}

func normalizeProps(props map[string]any) map[string]any {
	for k, v := range props {
		props[k] = normalizeScalar(v)
	}
	return props
}

// normalizeScalar undoes msgpack's integer narrowing so cached rows
// carry the same kinds the driver delivers. Collections normalize
// element by element.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []any:
		for i, item := range x {
			x[i] = normalizeScalar(item)
		}
		return x
	case map[string]any:
		return normalizeProps(x)
	default:
		return v
	}
}

// Package cache implements the on-disk, LZ4-compressed cache backing
// `require_recursive`: once a file's exports have been resolved, both its
// rewritten node tree and its export name list are persisted so the next
// CLI invocation over the same tree skips re-walking unchanged files.
package cache

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pierrec/lz4/v4"
)

// Each stored entry is [1-byte flag][4-byte LE original length][payload].
// flagRaw means payload is the original bytes verbatim — lz4.CompressBlock
// returns a written count of 0 for input it can't shrink (too small, or
// already dense), and storing it uncompressed in that case avoids a wasted
// round trip through the compressor on every subsequent Get.
const (
	flagRaw        = 0
	flagCompressed = 1

	flagSize   = 1
	lengthSize = 4
	headerSize = flagSize + lengthSize
)

// Cache is a directory-backed, LZ4-compressed key/value store keyed by an
// arbitrary string (a resolved file path, in require_recursive's case).
// Safe for concurrent use: hit/miss counters are atomic and each entry
// lives in its own file, so concurrent Get/Put calls for different keys
// never contend.
type Cache struct {
	dir  string
	ttl  time.Duration
	hits atomic.Int64
	miss atomic.Int64
}

// New returns a Cache rooted at dir (created if absent). A zero ttl means
// entries never expire.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{dir: dir, ttl: ttl}, nil
}

// Get returns the decompressed bytes stored under key, or (nil, false) on
// a miss — key absent, unreadable, corrupt, or past its TTL.
func (c *Cache) Get(key string) ([]byte, bool) {
	path := c.pathFor(key)

	info, statErr := os.Stat(path)
	if statErr != nil {
		c.miss.Add(1)

		return nil, false
	}

	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		c.miss.Add(1)

		return nil, false
	}

	raw, readErr := os.ReadFile(path)
	if readErr != nil || len(raw) < headerSize {
		c.miss.Add(1)

		return nil, false
	}

	flag := raw[0]
	originalLen := binary.LittleEndian.Uint32(raw[flagSize:headerSize])
	payload := raw[headerSize:]

	switch flag {
	case flagRaw:
		c.hits.Add(1)

		return payload, true
	case flagCompressed:
		decompressed := make([]byte, originalLen)

		n, decompErr := lz4.UncompressBlock(payload, decompressed)
		if decompErr != nil {
			c.miss.Add(1)

			return nil, false
		}

		c.hits.Add(1)

		return decompressed[:n], true
	default:
		c.miss.Add(1)

		return nil, false
	}
}

// Put compresses data and stores it under key, overwriting any existing
// entry.
func (c *Cache) Put(key string, data []byte) error {
	bound := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, bound)

	written, compErr := lz4.CompressBlock(data, compressed, nil)
	if compErr != nil {
		return compErr
	}

	buf := new(bytes.Buffer)
	buf.Grow(headerSize + written)

	var header [headerSize]byte

	binary.LittleEndian.PutUint32(header[flagSize:], uint32(len(data)))

	if written == 0 {
		header[0] = flagRaw
		buf.Write(header[:])
		buf.Write(data)
	} else {
		header[0] = flagCompressed
		buf.Write(header[:])
		buf.Write(compressed[:written])
	}

	return os.WriteFile(c.pathFor(key), buf.Bytes(), 0o600)
}

// CacheHits implements observability.CacheStatsProvider.
func (c *Cache) CacheHits() int64 { return c.hits.Load() }

// CacheMisses implements observability.CacheStatsProvider.
func (c *Cache) CacheMisses() int64 { return c.miss.Load() }

// pathFor hashes key so arbitrary file paths (which may contain separators
// or exceed filesystem name limits) map to a safe, fixed-width filename —
// the same structural-fingerprint-over-identity approach pkg/ast uses for
// its comment table, applied here to on-disk entry naming instead of
// in-memory node association.
func (c *Cache) pathFor(key string) string {
	sum := sha1.Sum([]byte(key))

	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".lz4")
}

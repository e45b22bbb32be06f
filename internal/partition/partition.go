// Package partition stores the partitioned product table behind a
// load(index) interface shaped so a future implementation could make
// partitions disk-resident without the joiner changing at all.
package partition

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
)

// Store is what the joiner scans against. Implementations must not assume
// any partition other than the one requested is already resident.
type Store interface {
	Load(ctx context.Context, index int) ([]master.Product, error)
	Count() int
}

// blobStore keeps every partition gob-encoded in memory (standing in for a
// disk block) and serves Load through a bounded LRU of decoded partitions,
// so the decode cost is paid at most once per partition per cache window.
type blobStore struct {
	blobs [][]byte
	cache *lru.Cache[int, []master.Product]
}

// NewStore builds a Store from already-partitioned product slices. cacheSize
// bounds how many decoded partitions are held at once; 0 means "cache
// everything" since small reference datasets fit comfortably in memory.
func NewStore(partitions [][]master.Product, cacheSize int) (Store, error) {
	blobs := make([][]byte, len(partitions))
	for i, part := range partitions {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(part); err != nil {
			return nil, fmt.Errorf("encoding partition %d: %w", i, err)
		}
		blobs[i] = buf.Bytes()
	}

	size := cacheSize
	if size <= 0 {
		size = len(partitions)
	}
	if size <= 0 {
		size = 1
	}

	cache, err := lru.New[int, []master.Product](size)
	if err != nil {
		return nil, fmt.Errorf("creating partition cache: %w", err)
	}

	return &blobStore{blobs: blobs, cache: cache}, nil
}

func (s *blobStore) Count() int {
	return len(s.blobs)
}

func (s *blobStore) Load(_ context.Context, index int) ([]master.Product, error) {
	if index < 0 || index >= len(s.blobs) {
		return nil, fmt.Errorf("partition %d out of range (have %d)", index, len(s.blobs))
	}

	if rows, ok := s.cache.Get(index); ok {
		return rows, nil
	}

	var rows []master.Product
	if err := gob.NewDecoder(bytes.NewReader(s.blobs[index])).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding partition %d: %w", index, err)
	}
	s.cache.Add(index, rows)
	return rows, nil
}

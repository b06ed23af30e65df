package engine

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/store"
)

// IndexEntry represents a single active listing held by the candidate
// index.
type IndexEntry struct {
	CreatedAt time.Time
	ListingID string
	Listing   *domain.Listing
}

// fifoLess defines the ordering for both sides of a bucket: created_at
// ascending, then listing_id ascending. Min() returns the oldest
// listing, which gives FIFO fairness within a bucket.
func fifoLess(a, b IndexEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ListingID < b.ListingID
}

// Bucket holds the buy-side and sell-side active listings for a single
// (product_id, size) key, using B-trees with a secondary index for
// O(log n) removal by listing ID.
//
// The bucket is a derived view over the listing store: it holds no
// authority of its own and can be rebuilt at any time. Its worker is
// the only mutator; reads from other contexts (diagnostics) take the
// read lock and may observe a slightly stale view.
type Bucket struct {
	key   domain.BucketKey
	mu    sync.RWMutex
	buys  *btree.BTreeG[IndexEntry]
	sells *btree.BTreeG[IndexEntry]
	index map[string]IndexEntry // listing_id → entry
}

// NewBucket creates an empty bucket for the given key.
func NewBucket(key domain.BucketKey) *Bucket {
	const degree = 32
	return &Bucket{
		key:   key,
		buys:  btree.NewG[IndexEntry](degree, fifoLess),
		sells: btree.NewG[IndexEntry](degree, fifoLess),
		index: make(map[string]IndexEntry),
	}
}

// Upsert inserts or refreshes a listing's index entry. A listing that
// is no longer matchable (not active, or nothing left to reserve) is
// removed instead. Idempotent.
func (b *Bucket) Upsert(l *domain.Listing) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !l.Matchable() {
		b.remove(l.ListingID)
		return
	}

	entry := IndexEntry{
		CreatedAt: l.CreatedAt,
		ListingID: l.ListingID,
		Listing:   l,
	}
	b.remove(l.ListingID)
	b.index[l.ListingID] = entry
	if l.Side == domain.SideBuy {
		b.buys.ReplaceOrInsert(entry)
	} else {
		b.sells.ReplaceOrInsert(entry)
	}
}

// Remove deletes a listing from the bucket by ID. No-op if absent.
func (b *Bucket) Remove(listingID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(listingID)
}

func (b *Bucket) remove(listingID string) {
	entry, ok := b.index[listingID]
	if !ok {
		return
	}
	delete(b.index, listingID)
	// Delete is a no-op on the side the entry isn't on.
	b.buys.Delete(entry)
	b.sells.Delete(entry)
}

// Candidates returns a snapshot of the bucket's active listings on the
// given side, oldest first. The snapshot is finite and restartable:
// callers may walk it as many times as they like while the live trees
// keep changing underneath.
func (b *Bucket) Candidates(side domain.Side) []*domain.Listing {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tree := b.buys
	if side == domain.SideSell {
		tree = b.sells
	}
	result := make([]*domain.Listing, 0, tree.Len())
	tree.Ascend(func(entry IndexEntry) bool {
		result = append(result, entry.Listing)
		return true
	})
	return result
}

// Oldest returns the oldest listing on the given side, if any.
func (b *Bucket) Oldest(side domain.Side) (*domain.Listing, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tree := b.buys
	if side == domain.SideSell {
		tree = b.sells
	}
	entry, ok := tree.Min()
	if !ok {
		return nil, false
	}
	return entry.Listing, true
}

// BuyCount returns the number of indexed buy-side listings.
func (b *Bucket) BuyCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buys.Len()
}

// SellCount returns the number of indexed sell-side listings.
func (b *Bucket) SellCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sells.Len()
}

// CandidateIndex is a thread-safe map of bucket key → Bucket.
type CandidateIndex struct {
	mu      sync.RWMutex
	buckets map[domain.BucketKey]*Bucket
}

// NewCandidateIndex creates an empty CandidateIndex.
func NewCandidateIndex() *CandidateIndex {
	return &CandidateIndex{
		buckets: make(map[domain.BucketKey]*Bucket),
	}
}

// GetOrCreate returns the bucket for the given key, creating one if it
// doesn't already exist.
func (ci *CandidateIndex) GetOrCreate(key domain.BucketKey) *Bucket {
	ci.mu.RLock()
	bucket, ok := ci.buckets[key]
	ci.mu.RUnlock()
	if ok {
		return bucket
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()
	// Double-check after acquiring write lock.
	if bucket, ok = ci.buckets[key]; ok {
		return bucket
	}
	bucket = NewBucket(key)
	ci.buckets[key] = bucket
	return bucket
}

// Rebuild repopulates the index from the listing store by replaying
// every active listing. Existing buckets are replaced wholesale, so a
// rebuild also drops entries for listings that are no longer active.
func (ci *CandidateIndex) Rebuild(listings *store.ListingStore) {
	fresh := make(map[domain.BucketKey]*Bucket)
	for _, key := range listings.Buckets() {
		bucket := NewBucket(key)
		for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
			for _, l := range listings.ActiveByBucket(key, side) {
				bucket.Upsert(l)
			}
		}
		fresh[key] = bucket
	}

	ci.mu.Lock()
	ci.buckets = fresh
	ci.mu.Unlock()
}

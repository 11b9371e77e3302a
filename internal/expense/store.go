package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const expenseBucketName = "expenses"

// RecordStore defines the interface for the durable expense collection.
// Implementations assign IDs and timestamps on Append and publish a full
// ordered snapshot to every live subscriber after each change.
type RecordStore interface {
	// Append persists a new record and returns the store-assigned ID
	Append(ctx context.Context, record *Record) (string, error)

	// List returns all records ordered by CreatedAt descending
	List() ([]Record, error)

	// Subscribe returns a channel of full-collection snapshots and a
	// cancel function. After cancel returns, no further snapshots are
	// delivered and the channel is closed.
	Subscribe() (<-chan []Record, func())

	// Close closes the store and all live subscriptions
	Close() error
}

// BoltStore implements RecordStore using BoltDB
type BoltStore struct {
	db *bbolt.DB

	mu     sync.Mutex
	subs   map[int]chan []Record
	nextID int
	closed bool

	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewBoltStore creates a new BoltStore instance
func NewBoltStore(path string) (*BoltStore, error) {
	return NewBoltStoreWithDeps(path, &uuidGenerator{}, &defaultTimeSource{})
}

// NewBoltStoreWithDeps creates a new BoltStore with custom dependencies for testing
func NewBoltStoreWithDeps(path string, idGen IDGenerator, timeSrc TimeSource) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(expenseBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{
		db:          db,
		subs:        make(map[int]chan []Record),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}, nil
}

// uuidGenerator assigns random UUIDs as record IDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Append persists the record, stamping ID, CreatedAt and UpdatedAt
func (s *BoltStore) Append(ctx context.Context, record *Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	record.ID = s.idGenerator.Generate()
	now := s.timeSource.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("saving record: %w", err)
	}

	s.publish()
	return record.ID, nil
}

// List returns all records ordered by CreatedAt descending
func (s *BoltStore) List() ([]Record, error) {
	records := make([]Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				// Fail closed: skip documents that do not decode
				// instead of surfacing undefined values.
				slog.Warn("Skipping undecodable record", "key", string(k), "error", err)
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	sortRecords(records)
	return records, nil
}

// sortRecords orders records by CreatedAt descending, ID as tie-breaker
func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// Subscribe registers a snapshot feed. The current collection is delivered
// immediately so new subscribers never start empty-handed.
func (s *BoltStore) Subscribe() (<-chan []Record, func()) {
	ch := make(chan []Record, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	if records, err := s.List(); err == nil {
		ch <- records
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// publish pushes a fresh snapshot to every subscriber. A slow subscriber
// has its stale pending snapshot replaced rather than blocking the writer,
// so the latest collection state is always the one delivered.
func (s *BoltStore) publish() {
	records, err := s.List()
	if err != nil {
		slog.Error("Failed to build snapshot for subscribers", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- records:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- records:
			default:
			}
		}
	}
}

// Close closes the database and all live subscriptions
func (s *BoltStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	}
	s.mu.Unlock()
	return s.db.Close()
}

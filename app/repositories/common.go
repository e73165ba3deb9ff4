package repositories

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hobbyhub/app/models"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// timeNow is the clock used to stamp new posts and comments.
var timeNow = time.Now

const (
	// Key prefixes for different entity types
	UserKeyPrefix    = "user:"
	PostKeyPrefix    = "post:"
	CommentKeyPrefix = "comment:"

	// Sequence keys for auto-incrementing IDs
	UserSeqKey    = "seq:user"
	PostSeqKey    = "seq:post"
	CommentSeqKey = "seq:comment"
)

// titleMatches is the search predicate shared by the in-process backends:
// case-insensitive substring match on the title.
func titleMatches(post *models.Post, term string) bool {
	return strings.Contains(strings.ToLower(post.Title), strings.ToLower(term))
}

// sortNewestFirst orders posts by descending createdAt, newest id first on ties.
func sortNewestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// sortOldestFirst orders comments by ascending createdAt, then id.
func sortOldestFirst(comments []*models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

func entityKey(prefix string, id int) []byte {
	return []byte(fmt.Sprintf("%s%d", prefix, id))
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id uint64
	item, err := txn.Get([]byte(seqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id = 1
	} else if err != nil {
		return 0, fmt.Errorf("failed to get sequence %s: %w", seqKey, err)
	} else {
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence %s: %d bytes", seqKey, len(val))
			}
			id = binary.BigEndian.Uint64(val) + 1
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	if err := txn.Set([]byte(seqKey), buf); err != nil {
		return 0, fmt.Errorf("failed to update sequence %s: %w", seqKey, err)
	}

	return int(id), nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

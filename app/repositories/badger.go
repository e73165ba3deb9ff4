package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"hobbyhub/app/models"

	"github.com/dgraph-io/badger/v4"
)

// userRecord is the persisted form of a user; models.User hides the
// password from JSON.
type userRecord struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// BadgerStorage implements Storage on an embedded badger database.
// Comments are keyed by post so a post's thread is one prefix scan.
type BadgerStorage struct {
	db       *badger.DB
	mutex    sync.Mutex
	dbPath   string
	isTestDB bool
}

// NewBadgerStorage opens the database at path. An empty path opens a
// throwaway directory that is removed on Close.
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	isTest := false
	if path == "" {
		tempPath, err := os.MkdirTemp("", "hobbyhub_badger_")
		if err != nil {
			return nil, fmt.Errorf("error creating temp dir: %w", err)
		}
		path = tempPath
		isTest = true
	}
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return &BadgerStorage{db: db, dbPath: path, isTestDB: isTest}, nil
}

func (s *BadgerStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	if s.isTestDB {
		if err := os.RemoveAll(s.dbPath); err != nil {
			return fmt.Errorf("failed to cleanup test database: %w", err)
		}
	}
	return nil
}

func commentKey(postID, id int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", CommentKeyPrefix, postID, id))
}

func commentPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", CommentKeyPrefix, postID))
}

func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

func setEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// scan calls fn with the value of every key under prefix.
func scan(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		err := item.Value(func(val []byte) error {
			return fn(key, val)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// User methods

func (s *BadgerStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(UserKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return &models.User{ID: rec.ID, Username: rec.Username, Password: rec.Password}, nil
}

func (s *BadgerStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var findErr error
		user, findErr = findUser(txn, username)
		return findErr
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func findUser(txn *badger.Txn, username string) (*models.User, error) {
	var found *models.User
	err := scan(txn, []byte(UserKeyPrefix), func(_, val []byte) error {
		var rec userRecord
		if err := unmarshalEntity(val, &rec); err != nil {
			return err
		}
		if found == nil && rec.Username == username {
			found = &models.User{ID: rec.ID, Username: rec.Username, Password: rec.Password}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *BadgerStorage) CreateUser(ctx context.Context, in *models.InsertUser) (*models.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec := userRecord{Username: in.Username, Password: in.Password}
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := findUser(txn, in.Username); err == nil {
			return ErrConflict
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}
		rec.ID = id
		return setEntity(txn, entityKey(UserKeyPrefix, id), rec)
	})
	if err != nil {
		return nil, err
	}
	return &models.User{ID: rec.ID, Username: rec.Username, Password: rec.Password}, nil
}

// Post methods

func (s *BadgerStorage) GetPosts(ctx context.Context) ([]*models.Post, error) {
	return s.filterPosts(func(*models.Post) bool { return true })
}

func (s *BadgerStorage) GetPostByID(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(PostKeyPrefix, id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *BadgerStorage) SearchPosts(ctx context.Context, term string) ([]*models.Post, error) {
	if term == "" {
		return s.GetPosts(ctx)
	}
	return s.filterPosts(func(p *models.Post) bool { return titleMatches(p, term) })
}

func (s *BadgerStorage) CreatePost(ctx context.Context, in *models.InsertPost) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	post := in.Build(timeNow())
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id
		return setEntity(txn, entityKey(PostKeyPrefix, id), post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// modifyPost loads the post, applies fn and writes it back in one transaction.
func (s *BadgerStorage) modifyPost(id int, fn func(*models.Post)) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var post models.Post
	err := s.db.Update(func(txn *badger.Txn) error {
		key := entityKey(PostKeyPrefix, id)
		if err := getEntity(txn, key, &post); err != nil {
			return err
		}
		fn(&post)
		return setEntity(txn, key, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *BadgerStorage) UpdatePost(ctx context.Context, id int, update *models.UpdatePost) (*models.Post, error) {
	return s.modifyPost(id, func(p *models.Post) { p.Apply(update) })
}

func (s *BadgerStorage) UpvotePost(ctx context.Context, id int) (*models.Post, error) {
	return s.modifyPost(id, func(p *models.Post) { p.Upvotes++ })
}

// DeletePost removes the post's comments and then the post in a single
// transaction.
func (s *BadgerStorage) DeletePost(ctx context.Context, id int) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		err := scan(txn, commentPrefix(id), func(key, _ []byte) error {
			keys = append(keys, key)
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		key := entityKey(PostKeyPrefix, id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

func (s *BadgerStorage) GetPostsByUserID(ctx context.Context, userID string) ([]*models.Post, error) {
	if userID == "" {
		return []*models.Post{}, nil
	}
	posts, err := s.filterPosts(func(p *models.Post) bool { return p.OwnedBy(userID) })
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (s *BadgerStorage) filterPosts(keep func(*models.Post) bool) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var post models.Post
			if err := unmarshalEntity(val, &post); err != nil {
				return err
			}
			if keep(&post) {
				posts = append(posts, &post)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

// Comment methods

func (s *BadgerStorage) GetCommentsByPostID(ctx context.Context, postID int) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, commentPrefix(postID), func(_, val []byte) error {
			var comment models.Comment
			if err := unmarshalEntity(val, &comment); err != nil {
				return err
			}
			comments = append(comments, &comment)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortOldestFirst(comments)
	return comments, nil
}

func (s *BadgerStorage) CreateComment(ctx context.Context, in *models.InsertComment) (*models.Comment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	comment := in.Build(timeNow())
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id
		return setEntity(txn, commentKey(comment.PostID, id), comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment has to scan for the key since comments are keyed by post.
func (s *BadgerStorage) DeleteComment(ctx context.Context, id int) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		var key []byte
		err := scan(txn, []byte(CommentKeyPrefix), func(k, val []byte) error {
			if key != nil {
				return nil
			}
			var comment models.Comment
			if err := unmarshalEntity(val, &comment); err != nil {
				return err
			}
			if comment.ID == id {
				key = k
			}
			return nil
		})
		if err != nil {
			return err
		}
		if key == nil {
			return nil
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

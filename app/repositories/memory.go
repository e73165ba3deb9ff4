package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"hobbyhub/app/models"
)

// MemStorage keeps everything in process memory. Ids come from per-entity
// counters that start at 1 and are never reused, even after deletes.
type MemStorage struct {
	mutex         sync.RWMutex
	users         map[int]*models.User
	posts         map[int]*models.Post
	comments      map[int]*models.Comment
	nextUserID    int
	nextPostID    int
	nextCommentID int
}

// NewMemStorage creates an in-memory store, optionally loaded with the demo
// posts and comments.
func NewMemStorage(seed bool) *MemStorage {
	s := &MemStorage{
		users:         make(map[int]*models.User),
		posts:         make(map[int]*models.Post),
		comments:      make(map[int]*models.Comment),
		nextUserID:    1,
		nextPostID:    1,
		nextCommentID: 1,
	}
	if seed {
		s.seed()
	}
	return s
}

type seedPost struct {
	title    string
	content  string
	imageURL string
	age      func(time.Time) time.Time
	upvotes  int
}

var seedPosts = []seedPost{
	{
		title:    "Who is your favorite Founding Father?",
		content:  "Mine is Thomas Jefferson! What about you?",
		imageURL: "https://i.imgur.com/0OpthtU.jpg",
		age:      func(t time.Time) time.Time { return t.Add(-21 * time.Hour) },
		upvotes:  3,
	},
	{
		title:    "I'm in love with the Holy Roman Empire",
		content:  "The complexity and structure of the Holy Roman Empire has fascinated me for years. Does anyone else find this period particularly interesting?",
		imageURL: "https://i.imgur.com/example1.jpg",
		age:      func(t time.Time) time.Time { return t.AddDate(0, 0, -5) },
		upvotes:  23,
	},
	{
		title:    "Was Caesar overrated?",
		content:  "Julius Caesar is often portrayed as one of history's greatest leaders, but was he really that exceptional? Let's discuss!",
		imageURL: "https://i.imgur.com/example2.jpg",
		age:      func(t time.Time) time.Time { return t.AddDate(0, 0, -7) },
		upvotes:  11,
	},
	{
		title:    "Favorite historical documentaries?",
		content:  "I'm looking for recommendations on good historical documentaries to watch this weekend. Any suggestions?",
		imageURL: "",
		age:      func(t time.Time) time.Time { return t.AddDate(0, 0, -7) },
		upvotes:  7,
	},
}

var seedComments = []string{
	"Did you forget about Ben Franklin?",
	"It's got to be George Washington!",
}

func (s *MemStorage) seed() {
	now := timeNow()
	for _, sp := range seedPosts {
		post := s.insertPost(&models.Post{
			Title:     sp.title,
			Content:   sp.content,
			ImageURL:  sp.imageURL,
			CreatedAt: sp.age(now),
		})
		post.Upvotes = sp.upvotes
	}
	for _, content := range seedComments {
		s.insertComment(&models.Comment{PostID: 1, Content: content, CreatedAt: timeNow()})
	}
}

func (s *MemStorage) insertPost(post *models.Post) *models.Post {
	post.ID = s.nextPostID
	s.nextPostID++
	post.Upvotes = 0
	s.posts[post.ID] = post
	return post
}

func (s *MemStorage) insertComment(comment *models.Comment) *models.Comment {
	comment.ID = s.nextCommentID
	s.nextCommentID++
	s.comments[comment.ID] = comment
	return comment
}

// Close is a no-op; the maps go away with the process.
func (s *MemStorage) Close() error {
	return nil
}

// User methods

func (s *MemStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user.Clone(), nil
}

func (s *MemStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return user.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStorage) CreateUser(ctx context.Context, in *models.InsertUser) (*models.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, user := range s.users {
		if user.Username == in.Username {
			return nil, ErrConflict
		}
	}
	user := &models.User{ID: s.nextUserID, Username: in.Username, Password: in.Password}
	s.nextUserID++
	s.users[user.ID] = user
	return user.Clone(), nil
}

// Post methods

// GetPosts returns copies of all posts in ascending id order.
func (s *MemStorage) GetPosts(ctx context.Context) ([]*models.Post, error) {
	return s.filterPosts(func(*models.Post) bool { return true }), nil
}

func (s *MemStorage) GetPostByID(ctx context.Context, id int) (*models.Post, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return post.Clone(), nil
}

func (s *MemStorage) SearchPosts(ctx context.Context, term string) ([]*models.Post, error) {
	if term == "" {
		return s.GetPosts(ctx)
	}
	return s.filterPosts(func(p *models.Post) bool { return titleMatches(p, term) }), nil
}

func (s *MemStorage) CreatePost(ctx context.Context, in *models.InsertPost) (*models.Post, error) {
	post := in.Build(timeNow())

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.insertPost(post).Clone(), nil
}

func (s *MemStorage) UpdatePost(ctx context.Context, id int, update *models.UpdatePost) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := existing.Clone()
	updated.Apply(update)
	s.posts[id] = updated
	return updated.Clone(), nil
}

// DeletePost removes the post's comments first, then the post itself.
func (s *MemStorage) DeletePost(ctx context.Context, id int) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for commentID, comment := range s.comments {
		if comment.PostID == id {
			delete(s.comments, commentID)
		}
	}
	_, existed := s.posts[id]
	delete(s.posts, id)
	return existed, nil
}

func (s *MemStorage) UpvotePost(ctx context.Context, id int) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := post.Clone()
	updated.Upvotes = post.Upvotes + 1
	s.posts[id] = updated
	return updated.Clone(), nil
}

func (s *MemStorage) GetPostsByUserID(ctx context.Context, userID string) ([]*models.Post, error) {
	if userID == "" {
		return []*models.Post{}, nil
	}
	posts := s.filterPosts(func(p *models.Post) bool { return p.OwnedBy(userID) })
	sortNewestFirst(posts)
	return posts, nil
}

func (s *MemStorage) filterPosts(keep func(*models.Post) bool) []*models.Post {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	posts := make([]*models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if keep(post) {
			posts = append(posts, post.Clone())
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts
}

// Comment methods

func (s *MemStorage) GetCommentsByPostID(ctx context.Context, postID int) ([]*models.Comment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	comments := make([]*models.Comment, 0)
	for _, comment := range s.comments {
		if comment.PostID == postID {
			comments = append(comments, comment.Clone())
		}
	}
	sortOldestFirst(comments)
	return comments, nil
}

func (s *MemStorage) CreateComment(ctx context.Context, in *models.InsertComment) (*models.Comment, error) {
	comment := in.Build(timeNow())

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.insertComment(comment).Clone(), nil
}

func (s *MemStorage) DeleteComment(ctx context.Context, id int) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.comments[id]; !ok {
		return false, nil
	}
	delete(s.comments, id)
	return true, nil
}

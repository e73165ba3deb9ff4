package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hobbyhub/app/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT,
		image_url TEXT,
		upvotes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		user_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id SERIAL PRIMARY KEY,
		post_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT,
		image_url TEXT,
		upvotes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		user_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// gormConfig disables gorm's implicit transactions: every storage call is a
// single statement or an explicit sequence of them.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	}
}

// OpenPostgres connects to a PostgreSQL database.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer at a time.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// SQLStorage implements Storage on a relational database through gorm.
type SQLStorage struct {
	db *gorm.DB
}

// NewSQLStorage creates a new SQLStorage
func NewSQLStorage(db *gorm.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

// Migrate creates the tables if they are absent. It is safe to run on every
// start. No foreign key links comments to posts.
func (s *SQLStorage) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.db.Dialector.Name() == "sqlite" {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to set up tables: %w", err)
		}
	}
	return nil
}

func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// User methods

func (s *SQLStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *SQLStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *SQLStorage) CreateUser(ctx context.Context, in *models.InsertUser) (*models.User, error) {
	if _, err := s.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// The unique index still catches a concurrent signup; translate maps it.
	user := &models.User{Username: in.Username, Password: in.Password}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// Post methods

func (s *SQLStorage) GetPosts(ctx context.Context) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *SQLStorage) GetPostByID(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// SearchPosts matches the title case-insensitively on the database side.
// dbNow matches the microsecond precision of postgres timestamps so a created
// row reads back equal to what was returned.
func dbNow() time.Time {
	return timeNow().Truncate(time.Microsecond)
}

// likeEscaper makes LIKE treat wildcard characters in a search term literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SQLStorage) SearchPosts(ctx context.Context, term string) ([]*models.Post, error) {
	if term == "" {
		return s.GetPosts(ctx)
	}
	posts := make([]*models.Post, 0)
	err := s.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(term))+"%").
		Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *SQLStorage) CreatePost(ctx context.Context, in *models.InsertPost) (*models.Post, error) {
	post := in.Build(dbNow())
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, translate(err)
	}
	return post, nil
}

func (s *SQLStorage) UpdatePost(ctx context.Context, id int, update *models.UpdatePost) (*models.Post, error) {
	fields := map[string]interface{}{}
	if update != nil {
		if update.Title != nil {
			fields["title"] = *update.Title
		}
		if update.Content != nil {
			fields["content"] = *update.Content
		}
		if update.ImageURL != nil {
			fields["image_url"] = *update.ImageURL
		}
	}
	if len(fields) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return s.GetPostByID(ctx, id)
}

// DeletePost deletes the comments, then the post, as two separate
// statements.
func (s *SQLStorage) DeletePost(ctx context.Context, id int) (bool, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return false, fmt.Errorf("failed to delete comments of post %d: %w", id, err)
	}
	res := db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpvotePost increments in the database rather than writing back a value
// read earlier, so concurrent upvotes are never lost.
func (s *SQLStorage) UpvotePost(ctx context.Context, id int) (*models.Post, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetPostByID(ctx, id)
}

func (s *SQLStorage) GetPostsByUserID(ctx context.Context, userID string) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	if userID == "" {
		return posts, nil
	}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Comment methods

func (s *SQLStorage) GetCommentsByPostID(ctx context.Context, postID int) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *SQLStorage) CreateComment(ctx context.Context, in *models.InsertComment) (*models.Comment, error) {
	comment := in.Build(dbNow())
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, translate(err)
	}
	return comment, nil
}

func (s *SQLStorage) DeleteComment(ctx context.Context, id int) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

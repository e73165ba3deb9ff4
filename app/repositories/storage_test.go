package repositories

import (
	"context"
	"sort"
	"testing"
	"time"

	"hobbyhub/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// fakeClock pins timeNow for the duration of a test.
type fakeClock struct {
	current time.Time
}

func useFakeClock(t *testing.T, start time.Time) *fakeClock {
	t.Helper()
	clock := &fakeClock{current: start}
	previous := timeNow
	timeNow = func() time.Time { return clock.current }
	t.Cleanup(func() { timeNow = previous })
	return clock
}

func (c *fakeClock) set(t time.Time) { c.current = t }

func newPost(t *testing.T, s Storage, in *models.InsertPost) *models.Post {
	t.Helper()
	post, err := s.CreatePost(context.Background(), in)
	require.NoError(t, err)
	return post
}

func postIDs(posts []*models.Post) []int {
	ids := make([]int, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

// runStorageContract exercises the behaviour every backend must share.
// newStore must return an empty store.
func runStorageContract(t *testing.T, newStore func(t *testing.T) Storage) {
	ctx := context.Background()

	t.Run("create post", func(t *testing.T) {
		s := newStore(t)
		before := time.Now().Add(-time.Second)

		post, err := s.CreatePost(ctx, &models.InsertPost{
			Title:    strPtr("Test"),
			Content:  strPtr("X"),
			ImageURL: strPtr("https://i.imgur.com/x.jpg"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, post.ID)
		assert.Equal(t, "Test", post.Title)
		assert.Equal(t, "X", post.Content)
		assert.Equal(t, "https://i.imgur.com/x.jpg", post.ImageURL)
		assert.Equal(t, 0, post.Upvotes)
		assert.Nil(t, post.UserID)
		assert.True(t, post.CreatedAt.After(before))

		stored, err := s.GetPostByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Test", stored.Title)
		assert.Equal(t, 0, stored.Upvotes)
		assert.WithinDuration(t, post.CreatedAt, stored.CreatedAt, time.Millisecond)
	})

	t.Run("optional fields default to empty", func(t *testing.T) {
		s := newStore(t)
		post := newPost(t, s, &models.InsertPost{Title: strPtr("Only a title")})

		stored, err := s.GetPostByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "", stored.Content)
		assert.Equal(t, "", stored.ImageURL)
	})

	t.Run("missing post", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetPostByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.UpdatePost(ctx, 9999, &models.UpdatePost{Title: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.UpvotePost(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)

		deleted, err := s.DeletePost(ctx, 9999)
		assert.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("upvote increments by one", func(t *testing.T) {
		s := newStore(t)
		post := newPost(t, s, &models.InsertPost{Title: strPtr("Vote")})

		upvoted, err := s.UpvotePost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, upvoted.Upvotes)

		for i := 0; i < 4; i++ {
			_, err := s.UpvotePost(ctx, post.ID)
			require.NoError(t, err)
		}
		stored, err := s.GetPostByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, stored.Upvotes)
	})

	t.Run("update merges provided fields", func(t *testing.T) {
		s := newStore(t)
		post := newPost(t, s, &models.InsertPost{Title: strPtr("Test"), Content: strPtr("X"), ImageURL: strPtr("img")})
		_, err := s.UpvotePost(ctx, post.ID)
		require.NoError(t, err)

		updated, err := s.UpdatePost(ctx, post.ID, &models.UpdatePost{Title: strPtr("Test2")})
		require.NoError(t, err)
		assert.Equal(t, "Test2", updated.Title)
		assert.Equal(t, "X", updated.Content)
		assert.Equal(t, "img", updated.ImageURL)
		assert.Equal(t, 1, updated.Upvotes)
		assert.WithinDuration(t, post.CreatedAt, updated.CreatedAt, time.Millisecond)

		unchanged, err := s.UpdatePost(ctx, post.ID, &models.UpdatePost{})
		require.NoError(t, err)
		assert.Equal(t, "Test2", unchanged.Title)

		cleared, err := s.UpdatePost(ctx, post.ID, &models.UpdatePost{Content: strPtr("")})
		require.NoError(t, err)
		assert.Equal(t, "", cleared.Content)
		assert.Equal(t, "Test2", cleared.Title)
	})

	t.Run("delete cascades to comments", func(t *testing.T) {
		s := newStore(t)
		post := newPost(t, s, &models.InsertPost{Title: strPtr("Doomed")})
		other := newPost(t, s, &models.InsertPost{Title: strPtr("Survivor")})
		for _, content := range []string{"one", "two"} {
			_, err := s.CreateComment(ctx, &models.InsertComment{PostID: intPtr(post.ID), Content: strPtr(content)})
			require.NoError(t, err)
		}
		_, err := s.CreateComment(ctx, &models.InsertComment{PostID: intPtr(other.ID), Content: strPtr("keep")})
		require.NoError(t, err)

		deleted, err := s.DeletePost(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		comments, err := s.GetCommentsByPostID(ctx, post.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)

		_, err = s.GetPostByID(ctx, post.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		kept, err := s.GetCommentsByPostID(ctx, other.ID)
		require.NoError(t, err)
		assert.Len(t, kept, 1)

		again, err := s.DeletePost(ctx, post.ID)
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("ids are never reused", func(t *testing.T) {
		s := newStore(t)
		first := newPost(t, s, &models.InsertPost{Title: strPtr("a")})
		second := newPost(t, s, &models.InsertPost{Title: strPtr("b")})
		_, err := s.DeletePost(ctx, second.ID)
		require.NoError(t, err)

		third := newPost(t, s, &models.InsertPost{Title: strPtr("c")})
		assert.Greater(t, second.ID, first.ID)
		assert.Greater(t, third.ID, second.ID)
	})

	t.Run("search", func(t *testing.T) {
		s := newStore(t)
		caesar := newPost(t, s, &models.InsertPost{Title: strPtr("Was Caesar overrated?")})
		newPost(t, s, &models.InsertPost{Title: strPtr("Favorite historical documentaries?")})
		newPost(t, s, &models.InsertPost{Title: strPtr("Rome"), Content: strPtr("caesar in content only")})

		found, err := s.SearchPosts(ctx, "caesar")
		require.NoError(t, err)
		assert.Equal(t, []int{caesar.ID}, postIDs(found))

		upper, err := s.SearchPosts(ctx, "CAESAR")
		require.NoError(t, err)
		assert.Equal(t, []int{caesar.ID}, postIDs(upper))

		for _, wildcard := range []string{"_", "%", `\`} {
			literal, err := s.SearchPosts(ctx, wildcard)
			require.NoError(t, err)
			assert.Empty(t, literal, "search %q", wildcard)
		}

		none, err := s.SearchPosts(ctx, "napoleon")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		all, err := s.GetPosts(ctx)
		require.NoError(t, err)
		everything, err := s.SearchPosts(ctx, "")
		require.NoError(t, err)
		allIDs, everyIDs := postIDs(all), postIDs(everything)
		sort.Ints(allIDs)
		sort.Ints(everyIDs)
		assert.Equal(t, allIDs, everyIDs)
		assert.Len(t, allIDs, 3)

		underscored := newPost(t, s, &models.InsertPost{Title: strPtr("snake_case 50% off")})
		for _, term := range []string{"_", "e_c", "50%"} {
			matched, err := s.SearchPosts(ctx, term)
			require.NoError(t, err)
			assert.Equal(t, []int{underscored.ID}, postIDs(matched), "search %q", term)
		}
	})

	t.Run("comments oldest first", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := useFakeClock(t, base)
		post := newPost(t, s, &models.InsertPost{Title: strPtr("Thread")})

		clock.set(base.Add(2 * time.Minute))
		late, err := s.CreateComment(ctx, &models.InsertComment{PostID: intPtr(post.ID), Content: strPtr("late")})
		require.NoError(t, err)
		clock.set(base.Add(time.Minute))
		early, err := s.CreateComment(ctx, &models.InsertComment{PostID: intPtr(post.ID), Content: strPtr("early")})
		require.NoError(t, err)

		comments, err := s.GetCommentsByPostID(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, early.ID, comments[0].ID)
		assert.Equal(t, late.ID, comments[1].ID)
		assert.Equal(t, post.ID, comments[0].PostID)
		assert.Equal(t, "early", comments[0].Content)
	})

	t.Run("comments may reference missing posts", func(t *testing.T) {
		s := newStore(t)
		comment, err := s.CreateComment(ctx, &models.InsertComment{PostID: intPtr(424242), Content: strPtr("orphan")})
		require.NoError(t, err)
		assert.Equal(t, 424242, comment.PostID)

		deleted, err := s.DeleteComment(ctx, comment.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.DeleteComment(ctx, comment.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("posts by user newest first", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := useFakeClock(t, base)

		middle := newPost(t, s, &models.InsertPost{Title: strPtr("middle"), UserID: strPtr("user-a")})
		clock.set(base.Add(time.Hour))
		newest := newPost(t, s, &models.InsertPost{Title: strPtr("newest"), UserID: strPtr("user-a")})
		clock.set(base.Add(-time.Hour))
		oldest := newPost(t, s, &models.InsertPost{Title: strPtr("oldest"), UserID: strPtr("user-a")})
		newPost(t, s, &models.InsertPost{Title: strPtr("someone else"), UserID: strPtr("user-b")})
		newPost(t, s, &models.InsertPost{Title: strPtr("anonymous")})

		posts, err := s.GetPostsByUserID(ctx, "user-a")
		require.NoError(t, err)
		assert.Equal(t, []int{newest.ID, middle.ID, oldest.ID}, postIDs(posts))
		require.NotNil(t, posts[0].UserID)
		assert.Equal(t, "user-a", *posts[0].UserID)

		empty, err := s.GetPostsByUserID(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("users", func(t *testing.T) {
		s := newStore(t)

		user, err := s.CreateUser(ctx, &models.InsertUser{Username: "ada", Password: "hashed"})
		require.NoError(t, err)
		assert.Equal(t, 1, user.ID)

		byID, err := s.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada", byID.Username)
		assert.Equal(t, "hashed", byID.Password)

		byName, err := s.GetUserByUsername(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		_, err = s.CreateUser(ctx, &models.InsertUser{Username: "ada", Password: "other"})
		assert.ErrorIs(t, err, ErrConflict)

		_, err = s.GetUser(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"hirocks/internal/cache"
	"hirocks/internal/repository"
	"hirocks/internal/storage"
	"hirocks/internal/testutil"
	"hirocks/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validContent = "<p>오늘의 타바타: 버피, 스쿼트 점프, 마운틴 클라이머</p>"

func newPostService(repo *postRepoStub, topics *topicRepoStub, store storage.ObjectStore) *PostService {
	return NewPostService(repo, topics, store, cache.NewQuery(nil), PostServiceOptions{MaxImageBytes: 1 << 20})
}

func TestListPostsNormalizesWindow(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", page: 0, size: 0, wantLimit: DefaultPageSize, wantOffset: 0},
		{name: "negative page", page: -3, size: 10, wantLimit: 10, wantOffset: 0},
		{name: "third page", page: 3, size: 15, wantLimit: 15, wantOffset: 30},
		{name: "oversized", page: 2, size: 500, wantLimit: MaxPageSize, wantOffset: MaxPageSize},
		{name: "huge page", page: math.MaxInt / 10, size: 10, wantLimit: 10, wantOffset: (math.MaxInt32/10 - 1) * 10},
		{name: "max int page", page: math.MaxInt, size: 0, wantLimit: DefaultPageSize, wantOffset: (math.MaxInt32/DefaultPageSize - 1) * DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopPostRepo()
			var got repository.PostFilter
			repo.listPublishedFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, int64, error) {
				got = f
				return nil, 0, nil
			}
			svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

			page, err := svc.ListPosts(context.Background(), ListPostsInput{Page: tt.page, PageSize: tt.size})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
			assert.Equal(t, tt.wantLimit, page.PageSize)
			assert.NotNil(t, page.Posts)
		})
	}
}

func TestListPostsTotalPagesAndTopicFilter(t *testing.T) {
	repo := noopPostRepo()
	var got repository.PostFilter
	repo.listPublishedFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, int64, error) {
		got = f
		return []*models.Post{{ID: 1}}, 31, nil
	}
	svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

	page, err := svc.ListPosts(context.Background(), ListPostsInput{TopicID: uintPtr(4), Page: 1})
	require.NoError(t, err)
	require.NotNil(t, got.TopicID)
	assert.Equal(t, uint(4), *got.TopicID)
	assert.Equal(t, int64(31), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
}

func TestListPostsOverlaysCallerLikes(t *testing.T) {
	repo := noopPostRepo()
	repo.listPublishedFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
		return []*models.Post{{ID: 1}, {ID: 2}, {ID: 3}}, 3, nil
	}
	repo.getLikedPostIDsFn = func(_ context.Context, userID uint, ids []uint) ([]uint, error) {
		assert.Equal(t, uint(7), userID)
		assert.Equal(t, []uint{1, 2, 3}, ids)
		return []uint{2}, nil
	}
	svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

	page, err := svc.ListPosts(asUser(7), ListPostsInput{})
	require.NoError(t, err)
	assert.False(t, page.Posts[0].IsLiked)
	assert.True(t, page.Posts[1].IsLiked)
	assert.False(t, page.Posts[2].IsLiked)

	anon, err := svc.ListPosts(context.Background(), ListPostsInput{})
	require.NoError(t, err)
	for _, p := range anon.Posts {
		assert.False(t, p.IsLiked)
	}
}

func TestListPostsUpstreamFailure(t *testing.T) {
	repo := noopPostRepo()
	repo.listPublishedFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
		return nil, 0, errors.New("connection refused")
	}
	svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

	_, err := svc.ListPosts(context.Background(), ListPostsInput{})
	assert.True(t, models.HasCode(err, models.CodeUpstream))
}

func TestGetPost(t *testing.T) {
	t.Run("missing post", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getPublishedFn = func(_ context.Context, _ uint) (*models.Post, error) { return nil, errNotFound }
		svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

		_, err := svc.GetPost(context.Background(), 9)
		require.Error(t, err)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
		assert.Equal(t, "게시글을 찾을 수 없습니다.", err.Error())
	})

	t.Run("liked by caller", func(t *testing.T) {
		repo := noopPostRepo()
		repo.isLikedFn = func(_ context.Context, userID, postID uint) (bool, error) {
			return userID == 7 && postID == 3, nil
		}
		svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

		post, err := svc.GetPost(asUser(7), 3)
		require.NoError(t, err)
		assert.True(t, post.IsLiked)

		post, err = svc.GetPost(context.Background(), 3)
		require.NoError(t, err)
		assert.False(t, post.IsLiked)
	})
}

func validPostInput() CreatePostInput {
	return CreatePostInput{
		Title:   "20분 타바타 루틴",
		Content: validContent,
		TopicID: uintPtr(1),
	}
}

func TestCreatePostRequiresCaller(t *testing.T) {
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		t.Fatal("create must not be called")
		return nil
	}
	svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

	_, err := svc.CreatePost(context.Background(), validPostInput())
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
}

func TestCreatePostValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreatePostInput)
	}{
		{name: "blank title", mutate: func(in *CreatePostInput) { in.Title = "   " }},
		{name: "title too long", mutate: func(in *CreatePostInput) { in.Title = strings.Repeat("가", 51) }},
		{name: "content too short after stripping tags", mutate: func(in *CreatePostInput) { in.Content = "<p><b>짧은 글</b></p>" }},
		{name: "content too long", mutate: func(in *CreatePostInput) { in.Content = strings.Repeat("a", 5001) }},
		{name: "missing topic", mutate: func(in *CreatePostInput) { in.TopicID = nil }},
		{name: "unknown difficulty", mutate: func(in *CreatePostInput) { in.Difficulty = strPtr("지옥") }},
		{name: "bad instagram link", mutate: func(in *CreatePostInput) { in.InstagramLink = strPtr("not a link") }},
		{name: "too many images", mutate: func(in *CreatePostInput) {
			for i := 0; i < storage.MaxPostImages+1; i++ {
				in.Images = append(in.Images, storage.ImageUpload{Filename: "a.png", Data: testutil.PNG(2, 2)})
			}
		}},
		{name: "not an image", mutate: func(in *CreatePostInput) {
			in.Images = []storage.ImageUpload{{Filename: "notes.txt", Data: []byte("hello")}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopPostRepo()
			repo.createFn = func(_ context.Context, _ *models.Post) error {
				t.Fatal("create must not be called")
				return nil
			}
			store := testutil.NewMemoryStore()
			svc := newPostService(repo, noopTopicRepo(), store)

			in := validPostInput()
			tt.mutate(&in)
			_, err := svc.CreatePost(asUser(7), in)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
			assert.Empty(t, store.Keys())
		})
	}
}

func TestCreatePostRejectsInactiveTopic(t *testing.T) {
	topics := noopTopicRepo()
	topics.getActiveByIDFn = func(_ context.Context, _ uint) (*models.Topic, error) { return nil, errNotFound }
	svc := newPostService(noopPostRepo(), topics, testutil.NewMemoryStore())

	_, err := svc.CreatePost(asUser(7), validPostInput())
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestCreatePostUploadsImages(t *testing.T) {
	repo := noopPostRepo()
	var stored *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 42
		stored = p
		return nil
	}
	repo.getPublishedFn = func(_ context.Context, _ uint) (*models.Post, error) {
		require.NotNil(t, stored)
		cp := *stored
		cp.User = &models.User{ID: cp.UserID, Nickname: "버피왕"}
		return &cp, nil
	}
	store := testutil.NewMemoryStore()
	svc := newPostService(repo, noopTopicRepo(), store)

	in := validPostInput()
	in.Difficulty = strPtr(models.DifficultyAdvanced)
	in.Location = strPtr("  ")
	in.Images = []storage.ImageUpload{
		{Filename: "a.png", Data: testutil.PNG(4, 4)},
		{Filename: "b.png", Data: testutil.PNG(8, 8)},
	}

	post, err := svc.CreatePost(asUser(7), in)
	require.NoError(t, err)
	assert.Equal(t, uint(42), post.ID)
	assert.Equal(t, uint(7), post.UserID)
	assert.True(t, post.IsPublished)
	assert.Nil(t, post.Location)
	require.Len(t, post.Images, 2)
	require.Len(t, store.Keys(), 2)
	for i, url := range post.Images {
		assert.True(t, strings.HasPrefix(url, "https://cdn.test/post-images/"), url)
		assert.Contains(t, url, fmt.Sprintf("-%d-", i))
	}
	assert.Equal(t, "버피왕", post.User.Nickname)
}

func TestCreatePostUploadFailureAbortsBeforeInsert(t *testing.T) {
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		t.Fatal("create must not be called")
		return nil
	}
	store := testutil.NewMemoryStore()
	store.FailUploadContaining = "-1-"
	svc := newPostService(repo, noopTopicRepo(), store)

	in := validPostInput()
	in.Images = []storage.ImageUpload{
		{Filename: "a.png", Data: testutil.PNG(2, 2)},
		{Filename: "b.png", Data: testutil.PNG(2, 2)},
		{Filename: "c.png", Data: testutil.PNG(2, 2)},
	}

	_, err := svc.CreatePost(asUser(7), in)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeUpstream))
	assert.Empty(t, store.Keys())
}

func TestCreatePostInsertFailureRemovesImages(t *testing.T) {
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error { return errors.New("insert failed") }
	store := testutil.NewMemoryStore()
	svc := newPostService(repo, noopTopicRepo(), store)

	in := validPostInput()
	in.Images = []storage.ImageUpload{{Filename: "a.png", Data: testutil.PNG(2, 2)}}

	_, err := svc.CreatePost(asUser(7), in)
	assert.True(t, models.HasCode(err, models.CodeUpstream))
	assert.Empty(t, store.Keys())
	assert.Len(t, store.Removed, 1)
}

func TestDeletePost(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		svc := newPostService(noopPostRepo(), noopTopicRepo(), testutil.NewMemoryStore())
		err := svc.DeletePost(context.Background(), 1)
		assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
	})

	t.Run("missing post", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return nil, errNotFound }
		svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())
		err := svc.DeletePost(asUser(7), 1)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("someone else's post", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 99, Images: []string{"https://cdn.test/post-images/x.png"}}, nil
		}
		repo.deleteOwnedFn = func(_ context.Context, _, _ uint) (int64, error) {
			t.Fatal("delete must not be called")
			return 0, nil
		}
		store := testutil.NewMemoryStore()
		svc := newPostService(repo, noopTopicRepo(), store)

		err := svc.DeletePost(asUser(7), 1)
		require.Error(t, err)
		assert.True(t, models.HasCode(err, models.CodeForbidden))
		assert.Equal(t, "본인이 작성한 게시글만 삭제할 수 있습니다.", err.Error())
		assert.Empty(t, store.Removed)
	})

	t.Run("removes images even when storage fails", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 7, Images: []string{
				"https://cdn.test/post-images/1-0-aaaa.png",
				"https://cdn.test/post-images/1-1-bbbb.png",
			}}, nil
		}
		var deleted bool
		repo.deleteOwnedFn = func(_ context.Context, id, userID uint) (int64, error) {
			assert.Equal(t, uint(1), id)
			assert.Equal(t, uint(7), userID)
			deleted = true
			return 1, nil
		}
		store := testutil.NewMemoryStore()
		store.RemoveErr = errors.New("bucket unavailable")
		svc := newPostService(repo, noopTopicRepo(), store)

		require.NoError(t, svc.DeletePost(asUser(7), 1))
		assert.True(t, deleted)
		assert.Equal(t, []string{"post-images/1-0-aaaa.png", "post-images/1-1-bbbb.png"}, store.Removed)
	})

	t.Run("row vanished before delete", func(t *testing.T) {
		repo := noopPostRepo()
		repo.deleteOwnedFn = func(_ context.Context, _, _ uint) (int64, error) { return 0, nil }
		svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())
		err := svc.DeletePost(asUser(7), 1)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}

func TestToggleLike(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		svc := newPostService(noopPostRepo(), noopTopicRepo(), testutil.NewMemoryStore())
		_, err := svc.ToggleLike(context.Background(), 1)
		assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
	})

	t.Run("unpublished post", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, IsPublished: false}, nil
		}
		repo.toggleLikeFn = func(_ context.Context, _, _ uint) (bool, error) {
			t.Fatal("toggle must not be called")
			return false, nil
		}
		svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())
		_, err := svc.ToggleLike(asUser(7), 1)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("returns new state", func(t *testing.T) {
		repo := noopPostRepo()
		state := false
		repo.toggleLikeFn = func(_ context.Context, _, _ uint) (bool, error) {
			state = !state
			return state, nil
		}
		svc := newPostService(repo, noopTopicRepo(), testutil.NewMemoryStore())

		liked, err := svc.ToggleLike(asUser(7), 1)
		require.NoError(t, err)
		assert.True(t, liked)
		liked, err = svc.ToggleLike(asUser(7), 1)
		require.NoError(t, err)
		assert.False(t, liked)
	})
}

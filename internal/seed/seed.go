package seed

import (
	"fmt"

	"hirocks/internal/middleware"
	"hirocks/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// Seed makes generated data reproducible when non-zero.
	Seed int64
}

// Result summarizes a seeding run.
type Result struct {
	Users    []*models.User
	Topics   []models.Topic
	Posts    int
	Comments int
	Likes    int
}

// Seeder populates the database with demo community data.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll deletes every row created by the seeder, topics included.
func (s *Seeder) ClearAll() error {
	for _, table := range []interface{}{&models.Like{}, &models.Comment{}, &models.Post{}, &models.Topic{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	middleware.Logger.Info("seed data cleared")
	return nil
}

// Run seeds topics, users, posts, comments and likes.
func (s *Seeder) Run(opts Options) (*Result, error) {
	topics, err := Topics(s.db)
	if err != nil {
		return nil, err
	}

	f := NewFactory(s.db, opts.Seed)
	res := &Result{Topics: topics}

	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		res.Users = append(res.Users, u)
	}
	if len(res.Users) == 0 {
		return res, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := res.Users[f.rng.Intn(len(res.Users))]
		var topic *models.Topic
		if len(topics) > 0 {
			topic = &topics[f.rng.Intn(len(topics))]
		}
		post, err := f.CreatePost(author, topic)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		n, err := s.engage(f, post, res.Users)
		if err != nil {
			return nil, err
		}
		res.Comments += n.comments
		res.Likes += n.likes
	}

	middleware.Logger.Info("seed completed",
		"users", len(res.Users), "topics", len(topics), "posts", res.Posts,
		"comments", res.Comments, "likes", res.Likes)
	return res, nil
}

type engagement struct {
	comments int
	likes    int
}

// engage adds likes from a random subset of users and a few comment threads.
func (s *Seeder) engage(f *Factory, post *models.Post, users []*models.User) (engagement, error) {
	var n engagement
	for _, idx := range f.rng.Perm(len(users))[:f.rng.Intn(len(users)+1)] {
		if err := f.CreateLike(post, users[idx]); err != nil {
			return n, fmt.Errorf("create like: %w", err)
		}
		n.likes++
	}

	threads := f.rng.Intn(3)
	for i := 0; i < threads; i++ {
		top, err := f.CreateComment(post, users[f.rng.Intn(len(users))], nil)
		if err != nil {
			return n, fmt.Errorf("create comment: %w", err)
		}
		n.comments++
		if f.rng.Intn(2) == 0 {
			if _, err := f.CreateComment(post, users[f.rng.Intn(len(users))], top); err != nil {
				return n, fmt.Errorf("create reply: %w", err)
			}
			n.comments++
		}
	}
	return n, nil
}

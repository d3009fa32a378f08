// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"hirocks/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var (
	workoutMoves = []string{
		"버피", "스쿼트 점프", "마운틴 클라이머", "푸시업", "런지", "플랭크 잭",
		"하이 니즈", "케틀벨 스윙", "박스 점프", "줄넘기", "스프린트", "바이시클 크런치",
	}
	locations = []string{"집", "헬스장", "한강공원", "학교 운동장", "회사 옥상", "필라테스 스튜디오"}
	cheers    = []string{"멋져요!", "저도 내일 해볼게요", "몇 세트 하셨어요?", "같이 해요!", "루틴 공유 감사합니다", "오늘도 화이팅"}
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	rng    *rand.Rand
	nextID uint
}

// NewFactory creates a Factory bound to db. A zero seed picks one from the clock.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{db: db, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

// CreateUser persists a profile with a generated nickname. IDs are assigned
// by the factory because user IDs mirror the identity provider.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.nextID++
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID())
	bio := gofakeit.Sentence(6)
	nickname := gofakeit.Username()
	if len([]rune(nickname)) > 20 {
		nickname = string([]rune(nickname)[:20])
	}
	user := &models.User{
		ID:        f.nextID,
		Email:     gofakeit.Email(),
		Nickname:  nickname,
		AvatarURL: &avatar,
		Bio:       &bio,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a workout post without persisting it.
func (f *Factory) BuildPost(user *models.User, topic *models.Topic, overrides ...func(*models.Post)) *models.Post {
	moves := make([]string, 3)
	for i := range moves {
		moves[i] = workoutMoves[f.rng.Intn(len(workoutMoves))]
	}
	rounds := 4 + f.rng.Intn(6)
	difficulty := []string{models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced}[f.rng.Intn(3)]
	location := locations[f.rng.Intn(len(locations))]

	post := &models.Post{
		Title:       fmt.Sprintf("%s %d라운드 챌린지", moves[0], rounds),
		Content:     fmt.Sprintf("<p>%s, %s, %s 순서로 %d라운드 진행했어요.</p><p>%s</p>", moves[0], moves[1], moves[2], rounds, gofakeit.Sentence(8)),
		Difficulty:  &difficulty,
		Location:    &location,
		Images:      []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())},
		IsPublished: true,
		UserID:      user.ID,
	}
	if topic != nil {
		post.TopicID = &topic.ID
	}
	daysBack := f.rng.Intn(30)
	minsBack := f.rng.Intn(24 * 60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post.
func (f *Factory) CreatePost(user *models.User, topic *models.Topic, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, topic, overrides...)
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment, or a reply when parent is set.
func (f *Factory) CreateComment(post *models.Post, user *models.User, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    user.ID,
		Content:   cheers[f.rng.Intn(len(cheers))],
		CreatedAt: post.CreatedAt.Add(time.Duration(1+f.rng.Intn(600)) * time.Minute),
	}
	if parent != nil {
		comment.ParentID = &parent.ID
		comment.CreatedAt = parent.CreatedAt.Add(time.Duration(1+f.rng.Intn(60)) * time.Minute)
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike records that user liked post.
func (f *Factory) CreateLike(post *models.Post, user *models.User) error {
	return f.db.Create(&models.Like{PostID: post.ID, UserID: user.ID}).Error
}

package cache

import (
	"strconv"
	"strings"
	"time"
)

// Family groups cache entries that are invalidated together.
type Family string

const (
	FamilyTopics   Family = "topics"
	FamilyPosts    Family = "posts"
	FamilyPost     Family = "post"
	FamilyComments Family = "comments"
)

// TTLs per family; entries are refetched once they expire.
const (
	TopicsTTL   = 10 * time.Minute
	PostsTTL    = 1 * time.Minute
	PostTTL     = 5 * time.Minute
	CommentsTTL = 30 * time.Second
)

// TTL returns the lifetime of entries in f.
func (f Family) TTL() time.Duration {
	switch f {
	case FamilyTopics:
		return TopicsTTL
	case FamilyPost:
		return PostTTL
	case FamilyComments:
		return CommentsTTL
	default:
		return PostsTTL
	}
}

// Key identifies one cached read. Scope narrows a family to a single post;
// Params distinguish variants inside a scope (filters, page numbers).
type Key struct {
	Family Family
	Scope  string
	Params []string
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Family))
	if k.Scope != "" {
		b.WriteByte(':')
		b.WriteString(k.Scope)
	}
	for _, p := range k.Params {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// TopicsKey is the key of the active topic list.
func TopicsKey() Key {
	return Key{Family: FamilyTopics}
}

// PostsKey is the key of one page of the post feed.
func PostsKey(topicID *uint, page, pageSize int) Key {
	topic := "all"
	if topicID != nil {
		topic = formatID(*topicID)
	}
	return Key{
		Family: FamilyPosts,
		Params: []string{topic, strconv.Itoa(page), strconv.Itoa(pageSize)},
	}
}

// PostKey is the key of a single post.
func PostKey(id uint) Key {
	return Key{Family: FamilyPost, Scope: formatID(id)}
}

// CommentsKey is the key of the comment tree of a post.
func CommentsKey(postID uint) Key {
	return Key{Family: FamilyComments, Scope: formatID(postID)}
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

package cache

import "context"

// Mutation names a write that makes cached reads stale.
type Mutation int

const (
	PostCreated Mutation = iota
	PostDeleted
	LikeToggled
	CommentCreated
	CommentUpdated
	CommentDeleted
)

func (m Mutation) String() string {
	switch m {
	case PostCreated:
		return "post_created"
	case PostDeleted:
		return "post_deleted"
	case LikeToggled:
		return "like_toggled"
	case CommentCreated:
		return "comment_created"
	case CommentUpdated:
		return "comment_updated"
	case CommentDeleted:
		return "comment_deleted"
	default:
		return "unknown"
	}
}

// Affected lists the keys made stale by m on postID. A key without Scope
// covers its whole family.
func Affected(m Mutation, postID uint) []Key {
	switch m {
	case PostCreated:
		return []Key{{Family: FamilyPosts}}
	case PostDeleted:
		return []Key{{Family: FamilyPosts}, PostKey(postID), CommentsKey(postID)}
	case LikeToggled:
		return []Key{{Family: FamilyPosts}, PostKey(postID)}
	case CommentCreated, CommentUpdated, CommentDeleted:
		return []Key{CommentsKey(postID), PostKey(postID), {Family: FamilyPosts}}
	default:
		return nil
	}
}

// Apply invalidates every key affected by m on postID.
func (q *Query) Apply(ctx context.Context, m Mutation, postID uint) {
	q.Invalidate(ctx, Affected(m, postID)...)
}

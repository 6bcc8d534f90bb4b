package models

import (
	"time"
)

// Vote 一个用户对一个目标的当前态度。
// PostID 和 CommentID 恰好一个非空；没有 Vote 行即中立态，
// 不存在 value=0 的投票。撤票就是删除这一行，不做软删除。
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post;uniqueIndex:idx_user_comment" json:"user_id"`
	PostID    *uint     `gorm:"index;uniqueIndex:idx_user_post" json:"post_id"`
	CommentID *uint     `gorm:"index;uniqueIndex:idx_user_comment" json:"comment_id"`
	VoteValue int       `gorm:"not null" json:"vote_value"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // 改票时更新
}

// PG 对含 NULL 的唯一索引按 (user_id, post_id) / (user_id, comment_id)
// 分别约束，保证同一用户对同一目标至多一票。

// NewVote 按目标类型填充互斥的外键对
func NewVote(userID uint, kind TargetKind, targetID uint, value int) *Vote {
	v := &Vote{
		UserID:    userID,
		VoteValue: value,
	}
	id := targetID
	if kind == TargetPost {
		v.PostID = &id
	} else {
		v.CommentID = &id
	}
	return v
}

// TargetKind 根据非空外键判断目标类型
func (v *Vote) TargetKind() TargetKind {
	if v.PostID != nil {
		return TargetPost
	}
	return TargetComment
}

// TargetID 返回非空一侧的目标 ID
func (v *Vote) TargetID() uint {
	if v.PostID != nil {
		return *v.PostID
	}
	if v.CommentID != nil {
		return *v.CommentID
	}
	return 0
}

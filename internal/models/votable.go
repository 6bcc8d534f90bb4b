package models

import (
	"time"
)

// TargetKind 投票目标类型
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Valid reports whether k is one of the two votable kinds.
func (k TargetKind) Valid() bool {
	return k == TargetPost || k == TargetComment
}

// Votable 可投票实体（帖子或评论）的公共能力。
// Upvotes/Downvotes 是按投票人权重累加的计数，不是原始票数。
type Votable interface {
	VotableID() uint
	VotableKind() TargetKind
	AuthorID() uint
	VoteCounts() (upvotes, downvotes int)
	// SetVoteCounts 写入新计数并同步重算 Score = upvotes - downvotes
	SetVoteCounts(upvotes, downvotes int)
	VoteScore() int
	CreatedTime() time.Time
}

// ScoreConsistent 校验冗余计数与 Score 的一致性。
// 投票路径之外的任何写入都不允许破坏 score = upvotes - downvotes。
func ScoreConsistent(v Votable) bool {
	up, down := v.VoteCounts()
	return v.VoteScore() == up-down
}

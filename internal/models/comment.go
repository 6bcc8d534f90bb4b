package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Cid       string    `gorm:"uniqueIndex;size:8;not null" json:"cid"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID  *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"parent"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Upvotes   int       `gorm:"default:0;not null" json:"upvotes"`
	Downvotes int       `gorm:"default:0;not null" json:"downvotes"`
	Score     int       `gorm:"default:0;not null" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) VotableID() uint         { return c.ID }
func (c *Comment) VotableKind() TargetKind { return TargetComment }
func (c *Comment) AuthorID() uint          { return c.UserID }
func (c *Comment) VoteScore() int          { return c.Score }
func (c *Comment) CreatedTime() time.Time  { return c.CreatedAt }

func (c *Comment) VoteCounts() (int, int) {
	return c.Upvotes, c.Downvotes
}

func (c *Comment) SetVoteCounts(upvotes, downvotes int) {
	c.Upvotes = upvotes
	c.Downvotes = downvotes
	c.Score = upvotes - downvotes
}

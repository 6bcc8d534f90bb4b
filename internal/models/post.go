package models

import (
	"time"
)

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Pid        string    `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title      string    `gorm:"not null" json:"title"`
	URL        string    `json:"url"` // Optional, 外链帖
	Content    string    `gorm:"type:text" json:"content"`
	Upvotes    int       `gorm:"default:0;not null" json:"upvotes"`   // 加权累计
	Downvotes  int       `gorm:"default:0;not null" json:"downvotes"` // 加权累计
	Score      int       `gorm:"default:0;not null" json:"score"`     // 始终等于 upvotes - downvotes
	HotScore   float64   `gorm:"default:0;not null;index" json:"hot_score"`
	SourceType string    `json:"source_type"` // e.g., "news"
	Category   string    `gorm:"size:50" json:"category"` // 新闻采集的分类标签
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	CommentCount int `gorm:"-" json:"comment_count"`
}

func (p *Post) VotableID() uint         { return p.ID }
func (p *Post) VotableKind() TargetKind { return TargetPost }
func (p *Post) AuthorID() uint          { return p.UserID }
func (p *Post) VoteScore() int          { return p.Score }
func (p *Post) CreatedTime() time.Time  { return p.CreatedAt }

func (p *Post) VoteCounts() (int, int) {
	return p.Upvotes, p.Downvotes
}

func (p *Post) SetVoteCounts(upvotes, downvotes int) {
	p.Upvotes = upvotes
	p.Downvotes = downvotes
	p.Score = upvotes - downvotes
}

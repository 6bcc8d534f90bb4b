package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"not null" json:"username"` // Username can be modified
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"not null" json:"-"`       // Hash
	Avatar       string    `gorm:"default:🌍" json:"avatar"` // emoji 头像
	Bio          string    `gorm:"size:200" json:"bio"`
	PostKarma    int       `gorm:"default:0;not null" json:"post_karma"`        // 帖子 karma，永不为负
	CommentKarma int       `gorm:"default:0;not null" json:"comment_karma"`     // 评论 karma，永不为负
	Role         string    `gorm:"size:20;default:'user';not null" json:"role"` // user, bot
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	// No DeletedAt for hard delete
}

// TotalKarma 投票权重按两类 karma 之和计算
func (u *User) TotalKarma() int {
	return u.PostKarma + u.CommentKarma
}

// IsBot 系统机器人账号（新闻采集发帖用）
func (u *User) IsBot() bool {
	return u.Role == "bot"
}

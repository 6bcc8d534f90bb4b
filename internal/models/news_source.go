package models

import (
	"time"
)

// NewsSource 新闻采集的 RSS 源配置
type NewsSource struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	Description   string     `gorm:"size:200" json:"description"`
	RSSURL        string     `gorm:"uniqueIndex;not null" json:"rss_url"`
	CategoryFocus string     `gorm:"size:50" json:"category_focus"` // 源的主题倾向，分类打分的兜底
	Active        bool       `gorm:"default:true;not null" json:"active"`
	MaxPerFetch   int        `gorm:"default:10;not null" json:"max_per_fetch"` // 单次抓取最多入库条数
	LastFetchedAt *time.Time `json:"last_fetched_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

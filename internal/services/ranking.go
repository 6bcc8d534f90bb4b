package services

import (
	"log"
	"sync"
	"time"
	"verdant/internal/db"
	"verdant/internal/models"
	"verdant/internal/scoring"
	"verdant/internal/utils"
)

// RankingService 异步复核帖子 hot_score 并失效列表缓存。
// 投票事务内已经同步重算过 hot_score，这里只服务投票路径之外的
// 写入（新闻采集、种子数据）；它从不碰计数器和 karma。
type RankingService struct {
	queue   chan uint // 待复核的帖子 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
}

var (
	rankingService *RankingService
	rankingOnce    sync.Once
)

// GetRankingService 获取单例排名服务
func GetRankingService() *RankingService {
	rankingOnce.Do(func() {
		rankingService = &RankingService{
			queue:   make(chan uint, 1000), // 缓冲队列，防止阻塞
			pending: make(map[uint]bool),
		}
		go rankingService.worker()
	})
	return rankingService
}

// ScheduleUpdate 将帖子加入复核队列（异步）。
// 去重机制避免短时间内重复计算同一帖子。
func (s *RankingService) ScheduleUpdate(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		log.Printf("排名队列已满，跳过帖子 %d", postID)
	}
}

// InvalidateListings 投票或发帖后失效列表页缓存
func (s *RankingService) InvalidateListings() {
	utils.GetCache().DeletePrefix("story:")
}

// worker 后台批量处理队列
func (s *RankingService) worker() {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(postIDs []uint) {
	for _, postID := range postIDs {
		s.refreshHotScore(postID)

		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
	s.InvalidateListings()
}

// refreshHotScore 用冗余计数器和创建时间重算 hot_score。
// 公式是确定性的，和投票事务内的同步计算结果一致。
func (s *RankingService) refreshHotScore(postID uint) {
	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		log.Printf("复核 hot_score 失败：帖子 %d 不存在", postID)
		return
	}

	hotScore := scoring.HotScore(post.Upvotes, post.Downvotes, post.CreatedAt)
	if hotScore == post.HotScore {
		return
	}

	if err := db.DB.Model(&post).UpdateColumn("hot_score", hotScore).Error; err != nil {
		log.Printf("更新帖子 %d hot_score 失败: %v", postID, err)
	}
}

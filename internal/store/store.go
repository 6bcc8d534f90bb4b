package store

import (
	"context"
	"errors"

	"verdant/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("store: record not found")

// ErrConflict 提交冲突（序列化失败、死锁回退等）。
// 事务已整体回滚，调用方可以安全地从头重试整个操作。
var ErrConflict = errors.New("store: transaction conflict")

// Tx 单次投票操作内的存储访问。所有方法在同一个事务里执行，
// 事务函数返回错误时整体回滚，不会留下部分更新。
type Tx interface {
	// VotableForUpdate 取出目标并持有其计数行的行锁（或等价互斥），
	// 保证并发投票不会基于同一份过期计数各自计算增量。
	VotableForUpdate(kind models.TargetKind, id uint) (models.Votable, error)

	// UserForUpdate 取出用户并持锁，用于 karma 更新
	UserForUpdate(id uint) (*models.User, error)

	// GetUser 只读取用户（投票人权重计算）
	GetUser(id uint) (*models.User, error)

	// GetVote 按 (user, target) 查当前投票
	GetVote(userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error)

	CreateVote(v *models.Vote) error
	SaveVote(v *models.Vote) error
	DeleteVote(v *models.Vote) error

	// SaveVotable 回写计数器、score 以及帖子的 hot_score
	SaveVotable(v models.Votable) error

	// SaveUserKarma 回写用户的两个 karma 计数
	SaveUserKarma(u *models.User) error

	CreateKarmaLog(l *models.KarmaLog) error
}

// Store 投票核心依赖的事务性存储边界
type Store interface {
	// InTx 在一个事务内执行 fn，fn 返回错误则整体回滚并原样透传
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// GetVote 事务外的只读查询（查询当前投票状态用）
	GetVote(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error)
}

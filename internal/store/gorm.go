package store

import (
	"context"
	"errors"
	"strings"

	"verdant/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore postgres 实现。行锁用 SELECT ... FOR UPDATE，
// 事务隔离沿用连接默认的 read committed。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{tx: tx})
	})
	return translateError(err)
}

func (s *GormStore) GetVote(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error) {
	return findVote(s.db.WithContext(ctx), userID, kind, targetID)
}

type gormTx struct {
	tx *gorm.DB
}

func (t *gormTx) VotableForUpdate(kind models.TargetKind, id uint) (models.Votable, error) {
	locked := t.tx.Clauses(clause.Locking{Strength: "UPDATE"})

	if kind == models.TargetPost {
		var post models.Post
		if err := locked.First(&post, id).Error; err != nil {
			return nil, translateError(err)
		}
		return &post, nil
	}

	var comment models.Comment
	if err := locked.First(&comment, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &comment, nil
}

func (t *gormTx) UserForUpdate(id uint) (*models.User, error) {
	var user models.User
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (t *gormTx) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := t.tx.First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (t *gormTx) GetVote(userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error) {
	return findVote(t.tx, userID, kind, targetID)
}

func (t *gormTx) CreateVote(v *models.Vote) error {
	return translateError(t.tx.Create(v).Error)
}

func (t *gormTx) SaveVote(v *models.Vote) error {
	return translateError(t.tx.Model(v).UpdateColumns(map[string]interface{}{
		"vote_value": v.VoteValue,
		"updated_at": v.UpdatedAt,
	}).Error)
}

func (t *gormTx) DeleteVote(v *models.Vote) error {
	return translateError(t.tx.Delete(v).Error)
}

func (t *gormTx) SaveVotable(v models.Votable) error {
	// UpdateColumns 只写投票路径维护的列，不碰标题等其他字段
	switch target := v.(type) {
	case *models.Post:
		return translateError(t.tx.Model(target).UpdateColumns(map[string]interface{}{
			"upvotes":   target.Upvotes,
			"downvotes": target.Downvotes,
			"score":     target.Score,
			"hot_score": target.HotScore,
		}).Error)
	case *models.Comment:
		return translateError(t.tx.Model(target).UpdateColumns(map[string]interface{}{
			"upvotes":   target.Upvotes,
			"downvotes": target.Downvotes,
			"score":     target.Score,
		}).Error)
	}
	return errors.New("store: unknown votable type")
}

func (t *gormTx) SaveUserKarma(u *models.User) error {
	return translateError(t.tx.Model(u).UpdateColumns(map[string]interface{}{
		"post_karma":    u.PostKarma,
		"comment_karma": u.CommentKarma,
	}).Error)
}

func (t *gormTx) CreateKarmaLog(l *models.KarmaLog) error {
	return translateError(t.tx.Create(l).Error)
}

func findVote(db *gorm.DB, userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error) {
	query := db.Where("user_id = ?", userID)
	if kind == models.TargetPost {
		query = query.Where("post_id = ?", targetID)
	} else {
		query = query.Where("comment_id = ?", targetID)
	}

	var vote models.Vote
	if err := query.First(&vote).Error; err != nil {
		return nil, translateError(err)
	}
	return &vote, nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	// 40001 serialization_failure / 40P01 deadlock_detected：
	// 事务已回滚，上层可整体重试
	msg := err.Error()
	if strings.Contains(msg, "SQLSTATE 40001") || strings.Contains(msg, "SQLSTATE 40P01") {
		return ErrConflict
	}
	return err
}

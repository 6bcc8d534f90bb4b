package services

import (
	"context"
	"errors"
	"time"

	"verdant/internal/models"
	"verdant/internal/scoring"
	"verdant/internal/store"
)

// 投票失败的几种结构性错误。它们都在任何写入发生之前返回，
// 计数器、karma 和投票表保持原样。
var (
	ErrInvalidVoteValue = errors.New("vote value must be 1 or -1")
	ErrTargetNotFound   = errors.New("vote target not found")
	ErrSelfVote         = errors.New("cannot vote on your own content")
	ErrVoterNotFound    = errors.New("voter not found")
)

// VotingService 投票写路径的全部逻辑：首投、改票、撤票，
// 以及随之维护的冗余计数器、作者 karma 和帖子 hot_score。
// 每次调用是一个完整的存储事务，提交或整体回滚，
// 并发读者看不到半套计数。服务本身无状态，所有状态在存储里。
type VotingService struct {
	store store.Store
	now   func() time.Time
}

func NewVotingService(s store.Store) *VotingService {
	return &VotingService{store: s, now: time.Now}
}

// CastVote 投票或改票。
// 同一用户对同一目标重复投同方向是幂等空操作，不算错误；
// 反方向则在同一步里撤旧加新。返回投票行和刷新后的目标。
func (s *VotingService) CastVote(ctx context.Context, userID uint, kind models.TargetKind, targetID uint, value int) (*models.Vote, models.Votable, error) {
	if value != 1 && value != -1 {
		return nil, nil, ErrInvalidVoteValue
	}
	if !kind.Valid() {
		return nil, nil, ErrTargetNotFound
	}

	var (
		vote   *models.Vote
		target models.Votable
	)

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		t, err := tx.VotableForUpdate(kind, targetID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTargetNotFound
		}
		if err != nil {
			return err
		}

		// 禁止给自己的内容投票
		if t.AuthorID() == userID {
			return ErrSelfVote
		}

		voter, err := tx.GetUser(userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrVoterNotFound
		}
		if err != nil {
			return err
		}

		// 权重取整后应用，karma < 9 的用户每票移动 1
		weight := int(scoring.VoteWeight(voter.TotalKarma()))

		existing, err := tx.GetVote(userID, kind, targetID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		switch {
		case existing == nil:
			// 首投
			v := models.NewVote(userID, kind, targetID, value)
			if err := tx.CreateVote(v); err != nil {
				return err
			}
			applyVoteDelta(t, 0, value, weight)
			if err := s.applyAuthorKarma(tx, t, 0, value, weight, false); err != nil {
				return err
			}
			vote = v

		case existing.VoteValue == value:
			// 同方向重复投票：幂等，无任何副作用
			vote = existing
			target = t
			return nil

		default:
			// 改票：同一步撤掉旧贡献、加上新贡献
			old := existing.VoteValue
			existing.VoteValue = value
			existing.UpdatedAt = s.now()
			if err := tx.SaveVote(existing); err != nil {
				return err
			}
			applyVoteDelta(t, old, value, weight)
			if err := s.applyAuthorKarma(tx, t, old, value, weight, false); err != nil {
				return err
			}
			vote = existing
		}

		s.refreshHotScore(t)

		if err := tx.SaveVotable(t); err != nil {
			return err
		}
		target = t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return vote, target, nil
}

// RetractVote 撤票。没有投过票是空操作（changed 为 false），不算错误。
// 有票则按改票的方式把旧贡献退回去，然后删除投票行。
func (s *VotingService) RetractVote(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (models.Votable, bool, error) {
	if !kind.Valid() {
		return nil, false, ErrTargetNotFound
	}

	var (
		target  models.Votable
		changed bool
	)

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		// 先锁目标再查投票，与 CastVote 的加锁顺序一致
		t, err := tx.VotableForUpdate(kind, targetID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTargetNotFound
		}
		if err != nil {
			return err
		}

		existing, err := tx.GetVote(userID, kind, targetID)
		if errors.Is(err, store.ErrNotFound) {
			target = t
			return nil
		}
		if err != nil {
			return err
		}

		voter, err := tx.GetUser(userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrVoterNotFound
		}
		if err != nil {
			return err
		}

		weight := int(scoring.VoteWeight(voter.TotalKarma()))

		applyVoteDelta(t, existing.VoteValue, 0, weight)
		if err := s.applyAuthorKarma(tx, t, existing.VoteValue, 0, weight, true); err != nil {
			return err
		}

		s.refreshHotScore(t)

		if err := tx.SaveVotable(t); err != nil {
			return err
		}
		if err := tx.DeleteVote(existing); err != nil {
			return err
		}
		target = t
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return target, changed, nil
}

// CurrentVote 纯查询，无副作用；没有投过票时返回 (nil, nil)
func (s *VotingService) CurrentVote(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error) {
	if !kind.Valid() {
		return nil, ErrTargetNotFound
	}
	vote, err := s.store.GetVote(ctx, userID, kind, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// applyVoteDelta 撤掉旧值的贡献、加上新值的贡献（0 表示无票）。
// 计数器钳位在 0：投票人权重在投与撤之间变大时不允许把计数拉成负数。
func applyVoteDelta(t models.Votable, oldValue, newValue, weight int) {
	up, down := t.VoteCounts()

	switch oldValue {
	case 1:
		up -= weight
	case -1:
		down -= weight
	}
	switch newValue {
	case 1:
		up += weight
	case -1:
		down += weight
	}

	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}
	t.SetVoteCounts(up, down)
}

// applyAuthorKarma 把 (newValue - oldValue) * weight 记到作者对应的
// karma 计数上，钳位在 0。帖子记 post_karma，评论记 comment_karma。
// 钳位意味着已经落到 0 的 karma 不能靠后来的撤踩完全补回来，
// 这是沿用的既定行为。
func (s *VotingService) applyAuthorKarma(tx store.Tx, t models.Votable, oldValue, newValue, weight int, retracted bool) error {
	author, err := tx.UserForUpdate(t.AuthorID())
	if errors.Is(err, store.ErrNotFound) {
		// 作者不存在时跳过 karma（目标仍可被投票）
		return nil
	}
	if err != nil {
		return err
	}

	delta := (newValue - oldValue) * weight
	if t.VotableKind() == models.TargetPost {
		author.PostKarma += delta
		if author.PostKarma < 0 {
			author.PostKarma = 0
		}
	} else {
		author.CommentKarma += delta
		if author.CommentKarma < 0 {
			author.CommentKarma = 0
		}
	}

	if err := tx.SaveUserKarma(author); err != nil {
		return err
	}

	return tx.CreateKarmaLog(&models.KarmaLog{
		UserID: author.ID,
		Amount: delta,
		Action: karmaAction(t.VotableKind(), delta, retracted),
	})
}

// refreshHotScore 帖子的 hot_score 在投票事务内用最新计数重算；
// 评论不参与 hot 榜
func (s *VotingService) refreshHotScore(t models.Votable) {
	if post, ok := t.(*models.Post); ok {
		post.HotScore = scoring.HotScore(post.Upvotes, post.Downvotes, post.CreatedAt)
	}
}

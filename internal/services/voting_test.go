package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"verdant/internal/models"
	"verdant/internal/scoring"
	"verdant/internal/store"
)

type votingEnv struct {
	store  *store.MemoryStore
	svc    *VotingService
	author uint
	voter  uint
	post   uint
}

// newVotingEnv 准备一个作者、一个投票人和一篇作者的空计数帖子
func newVotingEnv(t *testing.T) *votingEnv {
	t.Helper()

	ms := store.NewMemoryStore()
	author := ms.AddUser(models.User{Username: "author", Email: "author@example.com"})
	voter := ms.AddUser(models.User{Username: "voter", Email: "voter@example.com"})
	post := ms.AddPost(models.Post{
		Pid:       "p0000001",
		UserID:    author,
		Title:     "旧金山湾区盐沼修复进展",
		CreatedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	})

	return &votingEnv{
		store:  ms,
		svc:    NewVotingService(ms),
		author: author,
		voter:  voter,
		post:   post,
	}
}

func (e *votingEnv) mustPost(t *testing.T) models.Post {
	t.Helper()
	p, ok := e.store.PostByID(e.post)
	if !ok {
		t.Fatal("post disappeared")
	}
	return p
}

func TestFirstCastUpvote(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	vote, target, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, 1)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if vote.VoteValue != 1 || vote.TargetID() != env.post {
		t.Errorf("unexpected vote row: %+v", vote)
	}

	post := env.mustPost(t)
	if post.Upvotes != 1 || post.Downvotes != 0 || post.Score != 1 {
		t.Errorf("counters = (%d, %d, %d), want (1, 0, 1)", post.Upvotes, post.Downvotes, post.Score)
	}
	if !models.ScoreConsistent(&post) {
		t.Error("score drifted from counters")
	}

	// hot_score 必须用新计数和不变的创建时间重算
	want := scoring.HotScore(1, 0, post.CreatedAt)
	if post.HotScore != want {
		t.Errorf("hot_score = %v, want %v", post.HotScore, want)
	}
	if target.VoteScore() != 1 {
		t.Errorf("returned target score = %d, want 1", target.VoteScore())
	}

	// 作者的帖子 karma +1，并留下一条明细
	author, _ := env.store.UserByID(env.author)
	if author.PostKarma != 1 {
		t.Errorf("author post_karma = %d, want 1", author.PostKarma)
	}
	logs := env.store.KarmaLogs()
	if len(logs) != 1 || logs[0].Amount != 1 || logs[0].Action != ActionPostLiked {
		t.Errorf("unexpected karma logs: %+v", logs)
	}
}

func TestSameDirectionIdempotent(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, 1); err != nil {
		t.Fatalf("first cast: %v", err)
	}
	after1 := env.mustPost(t)

	// 重复投同方向：非事件，不是错误
	vote, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, 1)
	if err != nil {
		t.Fatalf("second cast: %v", err)
	}
	after2 := env.mustPost(t)

	if after2.Upvotes != after1.Upvotes || after2.Downvotes != after1.Downvotes || after2.Score != after1.Score {
		t.Errorf("counters changed on idempotent re-vote: %+v -> %+v", after1, after2)
	}
	if env.store.VoteCount() != 1 {
		t.Errorf("vote rows = %d, want 1", env.store.VoteCount())
	}
	if vote.VoteValue != 1 {
		t.Errorf("vote value = %d, want 1", vote.VoteValue)
	}
	if got := len(env.store.KarmaLogs()); got != 1 {
		t.Errorf("karma logs = %d, want 1 (no-op must not log)", got)
	}
}

func TestToggleConservation(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	// 先把帖子垫到 (4, 2)，投票人投 +1 后是 (5, 2)
	seed, _ := env.store.PostByID(env.post)
	seed.SetVoteCounts(4, 2)
	env.store.AddPost(seed)

	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, 1); err != nil {
		t.Fatalf("cast +1: %v", err)
	}
	before := env.mustPost(t)
	if before.Upvotes != 5 || before.Downvotes != 2 || before.Score != 3 {
		t.Fatalf("setup counters = (%d, %d, %d), want (5, 2, 3)", before.Upvotes, before.Downvotes, before.Score)
	}

	// 改票 +1 -> -1：撤旧加新一步完成，(5,2) -> (4,3)，score 掉 2
	vote, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, -1)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	after := env.mustPost(t)
	if after.Upvotes != 4 || after.Downvotes != 3 {
		t.Errorf("counters = (%d, %d), want (4, 3)", after.Upvotes, after.Downvotes)
	}
	if before.Score-after.Score != 2 {
		t.Errorf("score dropped by %d, want 2", before.Score-after.Score)
	}
	if vote.VoteValue != -1 {
		t.Errorf("vote value = %d, want -1", vote.VoteValue)
	}
	if vote.UpdatedAt.IsZero() {
		t.Error("updated_at not set on toggle")
	}
	if env.store.VoteCount() != 1 {
		t.Errorf("vote rows = %d, want 1 (toggle mutates in place)", env.store.VoteCount())
	}
}

func TestRetractConservation(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, 1); err != nil {
		t.Fatalf("cast: %v", err)
	}

	target, changed, err := env.svc.RetractVote(ctx, env.voter, models.TargetPost, env.post)
	if err != nil {
		t.Fatalf("retract: %v", err)
	}
	if !changed {
		t.Fatal("retract reported no-op for an existing vote")
	}

	post := env.mustPost(t)
	if post.Upvotes != 0 || post.Downvotes != 0 || post.Score != 0 {
		t.Errorf("counters = (%d, %d, %d), want (0, 0, 0)", post.Upvotes, post.Downvotes, post.Score)
	}
	if env.store.VoteCount() != 0 {
		t.Errorf("vote rows = %d, want 0 (retraction deletes the row)", env.store.VoteCount())
	}
	if target.VoteScore() != 0 {
		t.Errorf("returned score = %d, want 0", target.VoteScore())
	}

	// karma 也要回到投票前
	author, _ := env.store.UserByID(env.author)
	if author.PostKarma != 0 {
		t.Errorf("author post_karma = %d, want 0", author.PostKarma)
	}
}

func TestRetractWithoutVote(t *testing.T) {
	env := newVotingEnv(t)

	target, changed, err := env.svc.RetractVote(context.Background(), env.voter, models.TargetPost, env.post)
	if err != nil {
		t.Fatalf("retract: %v", err)
	}
	if changed {
		t.Error("retract of absent vote must be a no-op")
	}
	if target == nil {
		t.Error("no-op retract should still return the target")
	}
}

func TestSelfVoteRejected(t *testing.T) {
	env := newVotingEnv(t)

	before := env.mustPost(t)
	authorBefore, _ := env.store.UserByID(env.author)

	_, _, err := env.svc.CastVote(context.Background(), env.author, models.TargetPost, env.post, 1)
	if !errors.Is(err, ErrSelfVote) {
		t.Fatalf("err = %v, want ErrSelfVote", err)
	}

	// 前后快照必须完全一致
	after := env.mustPost(t)
	authorAfter, _ := env.store.UserByID(env.author)
	if after != before {
		t.Errorf("post changed on rejected self-vote: %+v -> %+v", before, after)
	}
	if authorAfter != authorBefore {
		t.Errorf("author changed on rejected self-vote")
	}
	if env.store.VoteCount() != 0 {
		t.Error("vote row created on rejected self-vote")
	}
}

func TestStructuralRejections(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, 0); !errors.Is(err, ErrInvalidVoteValue) {
		t.Errorf("value 0: err = %v, want ErrInvalidVoteValue", err)
	}
	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, 2); !errors.Is(err, ErrInvalidVoteValue) {
		t.Errorf("value 2: err = %v, want ErrInvalidVoteValue", err)
	}
	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, 9999, 1); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("missing target: err = %v, want ErrTargetNotFound", err)
	}
	if _, _, err := env.svc.CastVote(ctx, 9999, models.TargetPost, env.post, 1); !errors.Is(err, ErrVoterNotFound) {
		t.Errorf("missing voter: err = %v, want ErrVoterNotFound", err)
	}
	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetKind("story"), env.post, 1); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("bad kind: err = %v, want ErrTargetNotFound", err)
	}

	if env.store.VoteCount() != 0 {
		t.Error("rejected casts must not write votes")
	}
	post := env.mustPost(t)
	if post.Upvotes != 0 || post.Downvotes != 0 {
		t.Error("rejected casts must not move counters")
	}
}

func TestKarmaFloor(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	second := env.store.AddUser(models.User{Username: "voter2", Email: "voter2@example.com"})

	// 作者 karma 为 0 时连续被踩：karma 钳在 0，绝不为负
	for _, voter := range []uint{env.voter, second} {
		if _, _, err := env.svc.CastVote(ctx, voter, models.TargetPost, env.post, -1); err != nil {
			t.Fatalf("downvote by %d: %v", voter, err)
		}
		author, _ := env.store.UserByID(env.author)
		if author.PostKarma != 0 {
			t.Fatalf("author post_karma = %d, want 0 (floored)", author.PostKarma)
		}
	}
}

func TestKarmaClampAsymmetry(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	// 作者 karma 已经在 0：被踩不再扣，但撤踩仍然 +1。
	// 钳位带来的不对称是沿用的既定行为。
	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, -1); err != nil {
		t.Fatalf("downvote: %v", err)
	}
	if _, _, err := env.svc.RetractVote(ctx, env.voter, models.TargetPost, env.post); err != nil {
		t.Fatalf("retract: %v", err)
	}

	author, _ := env.store.UserByID(env.author)
	if author.PostKarma != 1 {
		t.Errorf("author post_karma = %d, want 1", author.PostKarma)
	}
}

func TestWeightedVoter(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	// karma 9 -> 权重 2.0 -> 整数增量 2
	heavy := env.store.AddUser(models.User{Username: "heavy", Email: "heavy@example.com", PostKarma: 9})

	if _, _, err := env.svc.CastVote(ctx, heavy, models.TargetPost, env.post, 1); err != nil {
		t.Fatalf("cast: %v", err)
	}

	post := env.mustPost(t)
	if post.Upvotes != 2 || post.Score != 2 {
		t.Errorf("counters = (%d, score %d), want (2, 2)", post.Upvotes, post.Score)
	}
	author, _ := env.store.UserByID(env.author)
	if author.PostKarma != 2 {
		t.Errorf("author post_karma = %d, want 2", author.PostKarma)
	}

	// karma 8 -> 权重 1.95 -> 截断后仍是 1
	light := env.store.AddUser(models.User{Username: "light", Email: "light@example.com", CommentKarma: 8})
	if _, _, err := env.svc.CastVote(ctx, light, models.TargetPost, env.post, 1); err != nil {
		t.Fatalf("cast: %v", err)
	}
	post = env.mustPost(t)
	if post.Upvotes != 3 {
		t.Errorf("upvotes = %d, want 3 (truncated weight 1)", post.Upvotes)
	}
}

func TestCommentVote(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	comment := env.store.AddComment(models.Comment{
		Cid:       "c0000001",
		PostID:    env.post,
		UserID:    env.author,
		Content:   "附一张修复前后的对比图",
		CreatedAt: time.Now(),
	})

	_, target, err := env.svc.CastVote(ctx, env.voter, models.TargetComment, comment, 1)
	if err != nil {
		t.Fatalf("CastVote on comment: %v", err)
	}
	if target.VotableKind() != models.TargetComment {
		t.Errorf("target kind = %v, want comment", target.VotableKind())
	}

	c, _ := env.store.CommentByID(comment)
	if c.Upvotes != 1 || c.Score != 1 {
		t.Errorf("comment counters = (%d, score %d), want (1, 1)", c.Upvotes, c.Score)
	}

	// 评论票记入 comment_karma，post_karma 不动
	author, _ := env.store.UserByID(env.author)
	if author.CommentKarma != 1 || author.PostKarma != 0 {
		t.Errorf("author karma = (post %d, comment %d), want (0, 1)", author.PostKarma, author.CommentKarma)
	}

	// 同一用户对帖子和评论的票互不干扰
	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, -1); err != nil {
		t.Fatalf("post vote after comment vote: %v", err)
	}
	if env.store.VoteCount() != 2 {
		t.Errorf("vote rows = %d, want 2", env.store.VoteCount())
	}
}

func TestCurrentVote(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	vote, err := env.svc.CurrentVote(ctx, env.voter, models.TargetPost, env.post)
	if err != nil {
		t.Fatalf("CurrentVote: %v", err)
	}
	if vote != nil {
		t.Errorf("expected absent vote, got %+v", vote)
	}

	if _, _, err := env.svc.CastVote(ctx, env.voter, models.TargetPost, env.post, -1); err != nil {
		t.Fatalf("cast: %v", err)
	}
	vote, err = env.svc.CurrentVote(ctx, env.voter, models.TargetPost, env.post)
	if err != nil {
		t.Fatalf("CurrentVote: %v", err)
	}
	if vote == nil || vote.VoteValue != -1 {
		t.Errorf("vote = %+v, want value -1", vote)
	}
}

func TestConcurrentVotesConverge(t *testing.T) {
	env := newVotingEnv(t)
	ctx := context.Background()

	const n = 32
	voters := make([]uint, n)
	for i := range voters {
		voters[i] = env.store.AddUser(models.User{Username: "v", Email: ""})
	}

	// n 个不同用户并发首投 +1：任何交错下都不能丢更新
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, voter := range voters {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, _, err := env.svc.CastVote(ctx, id, models.TargetPost, env.post, 1); err != nil {
				errs <- err
			}
		}(voter)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent cast: %v", err)
	}

	post := env.mustPost(t)
	if post.Upvotes != n || post.Score != n {
		t.Errorf("counters = (%d, score %d), want (%d, %d)", post.Upvotes, post.Score, n, n)
	}
	if !models.ScoreConsistent(&post) {
		t.Error("score drifted under concurrency")
	}
	if env.store.VoteCount() != n {
		t.Errorf("vote rows = %d, want %d", env.store.VoteCount(), n)
	}
	author, _ := env.store.UserByID(env.author)
	if author.PostKarma != n {
		t.Errorf("author post_karma = %d, want %d", author.PostKarma, n)
	}
}

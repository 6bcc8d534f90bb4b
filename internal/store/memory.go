package store

import (
	"context"
	"sync"
	"time"

	"verdant/internal/models"
)

type voteKey struct {
	userID   uint
	kind     models.TargetKind
	targetID uint
}

// MemoryStore 基于 map 的 arena 式存储：实体只以不透明 ID 互相引用，
// 关系在读取时显式查找。整库一把互斥锁，事务期间独占，
// 天然满足"同一目标的并发投票不会互相覆盖"的约束；
// 出错时用快照整体回滚。测试用，也可作为无数据库的本地运行后端。
type MemoryStore struct {
	mu        sync.Mutex
	users     map[uint]models.User
	posts     map[uint]models.Post
	comments  map[uint]models.Comment
	votes     map[voteKey]models.Vote
	karmaLogs []models.KarmaLog

	nextUserID    uint
	nextPostID    uint
	nextCommentID uint
	nextVoteID    uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]models.User),
		posts:    make(map[uint]models.Post),
		comments: make(map[uint]models.Comment),
		votes:    make(map[voteKey]models.Vote),
	}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) GetVote(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vote, ok := s.votes[voteKey{userID, kind, targetID}]
	if !ok {
		return nil, ErrNotFound
	}
	v := vote
	return &v, nil
}

// AddUser 测试和种子数据用；ID 为 0 时自动分配
func (s *MemoryStore) AddUser(u models.User) uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	}
	s.users[u.ID] = u
	return u.ID
}

func (s *MemoryStore) AddPost(p models.Post) uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		s.nextPostID++
		p.ID = s.nextPostID
	}
	s.posts[p.ID] = p
	return p.ID
}

func (s *MemoryStore) AddComment(c models.Comment) uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		s.nextCommentID++
		c.ID = s.nextCommentID
	}
	s.comments[c.ID] = c
	return c.ID
}

// UserByID 返回副本，避免测试绕过事务改到存储本体
func (s *MemoryStore) UserByID(id uint) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *MemoryStore) PostByID(id uint) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	return p, ok
}

func (s *MemoryStore) CommentByID(id uint) (models.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	return c, ok
}

func (s *MemoryStore) VoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes)
}

func (s *MemoryStore) KarmaLogs() []models.KarmaLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.KarmaLog, len(s.karmaLogs))
	copy(out, s.karmaLogs)
	return out
}

type memSnapshot struct {
	users     map[uint]models.User
	posts     map[uint]models.Post
	comments  map[uint]models.Comment
	votes     map[voteKey]models.Vote
	karmaLogs []models.KarmaLog
	nextVote  uint
}

func (s *MemoryStore) snapshot() memSnapshot {
	snap := memSnapshot{
		users:     make(map[uint]models.User, len(s.users)),
		posts:     make(map[uint]models.Post, len(s.posts)),
		comments:  make(map[uint]models.Comment, len(s.comments)),
		votes:     make(map[voteKey]models.Vote, len(s.votes)),
		karmaLogs: make([]models.KarmaLog, len(s.karmaLogs)),
		nextVote:  s.nextVoteID,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.posts {
		snap.posts[k] = v
	}
	for k, v := range s.comments {
		snap.comments[k] = v
	}
	for k, v := range s.votes {
		snap.votes[k] = v
	}
	copy(snap.karmaLogs, s.karmaLogs)
	return snap
}

func (s *MemoryStore) restore(snap memSnapshot) {
	s.users = snap.users
	s.posts = snap.posts
	s.comments = snap.comments
	s.votes = snap.votes
	s.karmaLogs = snap.karmaLogs
	s.nextVoteID = snap.nextVote
}

// memTx 持有整库锁期间的事务视图。读操作返回副本，
// 写操作显式回写，和 gorm 实现保持同一套读-改-写协议。
type memTx struct {
	store *MemoryStore
}

func (t *memTx) VotableForUpdate(kind models.TargetKind, id uint) (models.Votable, error) {
	if kind == models.TargetPost {
		p, ok := t.store.posts[id]
		if !ok {
			return nil, ErrNotFound
		}
		post := p
		return &post, nil
	}

	c, ok := t.store.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	comment := c
	return &comment, nil
}

func (t *memTx) UserForUpdate(id uint) (*models.User, error) {
	return t.GetUser(id)
}

func (t *memTx) GetUser(id uint) (*models.User, error) {
	u, ok := t.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

func (t *memTx) GetVote(userID uint, kind models.TargetKind, targetID uint) (*models.Vote, error) {
	v, ok := t.store.votes[voteKey{userID, kind, targetID}]
	if !ok {
		return nil, ErrNotFound
	}
	vote := v
	return &vote, nil
}

func (t *memTx) CreateVote(v *models.Vote) error {
	t.store.nextVoteID++
	v.ID = t.store.nextVoteID
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
		v.UpdatedAt = v.CreatedAt
	}
	t.store.votes[voteKey{v.UserID, v.TargetKind(), v.TargetID()}] = *v
	return nil
}

func (t *memTx) SaveVote(v *models.Vote) error {
	key := voteKey{v.UserID, v.TargetKind(), v.TargetID()}
	if _, ok := t.store.votes[key]; !ok {
		return ErrNotFound
	}
	t.store.votes[key] = *v
	return nil
}

func (t *memTx) DeleteVote(v *models.Vote) error {
	delete(t.store.votes, voteKey{v.UserID, v.TargetKind(), v.TargetID()})
	return nil
}

func (t *memTx) SaveVotable(v models.Votable) error {
	switch target := v.(type) {
	case *models.Post:
		if _, ok := t.store.posts[target.ID]; !ok {
			return ErrNotFound
		}
		t.store.posts[target.ID] = *target
	case *models.Comment:
		if _, ok := t.store.comments[target.ID]; !ok {
			return ErrNotFound
		}
		t.store.comments[target.ID] = *target
	}
	return nil
}

func (t *memTx) SaveUserKarma(u *models.User) error {
	stored, ok := t.store.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	stored.PostKarma = u.PostKarma
	stored.CommentKarma = u.CommentKarma
	t.store.users[u.ID] = stored
	return nil
}

func (t *memTx) CreateKarmaLog(l *models.KarmaLog) error {
	l.ID = uint(len(t.store.karmaLogs) + 1)
	t.store.karmaLogs = append(t.store.karmaLogs, *l)
	return nil
}

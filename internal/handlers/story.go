package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"
	"verdant/internal/db"
	"verdant/internal/middleware"
	"verdant/internal/models"
	"verdant/internal/scoring"
	"verdant/internal/services"
	"verdant/internal/utils"

	"github.com/gin-gonic/gin"
)

const perPage = 30

type StoryHandler struct{}

func NewStoryHandler() *StoryHandler {
	return &StoryHandler{}
}

// fillCommentCounts 批量填充帖子的评论数量
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

func pageParam(c *gin.Context) int {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	return page
}

// listResponse 列表页的统一响应
func listResponse(posts []models.Post, page int) gin.H {
	fillCommentCounts(posts)
	return gin.H{"posts": posts, "page": page, "per_page": perPage}
}

// ListTop 热门列表 GET /，按存储的 hot_score 排序
func (h *StoryHandler) ListTop(c *gin.Context) {
	page := pageParam(c)

	cacheKey := "story:top:page:" + c.DefaultQuery("page", "1")
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if body, ok := cached.(gin.H); ok {
			c.JSON(http.StatusOK, body)
			return
		}
	}

	var posts []models.Post
	db.DB.Preload("User").
		Order("hot_score DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&posts)

	body := listResponse(posts, page)
	utils.GetCache().Set(cacheKey, body, 2*time.Minute)
	c.JSON(http.StatusOK, body)
}

// ListNew 最新列表 GET /new
func (h *StoryHandler) ListNew(c *gin.Context) {
	page := pageParam(c)

	var posts []models.Post
	db.DB.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&posts)

	c.JSON(http.StatusOK, listResponse(posts, page))
}

// ListRising 上升榜 GET /rising：只看 24 小时窗口，
// 分数是读取时算的速度值，不落库
func (h *StoryHandler) ListRising(c *gin.Context) {
	cacheKey := "story:rising"
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if body, ok := cached.(gin.H); ok {
			c.JSON(http.StatusOK, body)
			return
		}
	}

	now := time.Now()
	cutoff := now.Add(-time.Duration(scoring.RisingWindowHours) * time.Hour)

	var posts []models.Post
	db.DB.Preload("User").
		Where("created_at >= ?", cutoff).
		Find(&posts)

	sort.Slice(posts, func(i, j int) bool {
		ri := scoring.RisingScore(posts[i].Upvotes, posts[i].Downvotes, posts[i].CreatedAt, now)
		rj := scoring.RisingScore(posts[j].Upvotes, posts[j].Downvotes, posts[j].CreatedAt, now)
		return ri > rj
	})
	if len(posts) > perPage {
		posts = posts[:perPage]
	}

	body := listResponse(posts, 1)
	utils.GetCache().Set(cacheKey, body, time.Minute)
	c.JSON(http.StatusOK, body)
}

// ListControversial 争议榜 GET /controversial：
// 最近 7 天里票多且接近对半开的帖子
func (h *StoryHandler) ListControversial(c *gin.Context) {
	cacheKey := "story:controversial"
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if body, ok := cached.(gin.H); ok {
			c.JSON(http.StatusOK, body)
			return
		}
	}

	var posts []models.Post
	db.DB.Preload("User").
		Where("created_at >= ?", time.Now().AddDate(0, 0, -7)).
		Where("upvotes + downvotes > 0").
		Find(&posts)

	sort.Slice(posts, func(i, j int) bool {
		return scoring.ControversialScore(posts[i].Upvotes, posts[i].Downvotes) >
			scoring.ControversialScore(posts[j].Upvotes, posts[j].Downvotes)
	})
	if len(posts) > perPage {
		posts = posts[:perPage]
	}

	body := listResponse(posts, 1)
	utils.GetCache().Set(cacheKey, body, time.Minute)
	c.JSON(http.StatusOK, body)
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Create 发帖 POST /submit
func (h *StoryHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "login required")
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "title is required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		JSONError(c, http.StatusBadRequest, "title is required")
		return
	}

	now := time.Now()
	post := models.Post{
		Pid:       utils.RandomID(8),
		UserID:    user.ID,
		Title:     strings.TrimSpace(req.Title),
		URL:       strings.TrimSpace(req.URL),
		Content:   req.Content,
		CreatedAt: now,
		HotScore:  scoring.HotScore(0, 0, now),
	}
	if err := db.DB.Create(&post).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create post")
		return
	}

	services.GetRankingService().InvalidateListings()
	c.JSON(http.StatusCreated, post)
}

// Detail 帖子详情 GET /p/:pid，正文渲染为消毒后的 HTML
func (h *StoryHandler) Detail(c *gin.Context) {
	pid := c.Param("pid")

	var post models.Post
	if err := db.DB.Preload("User").Where("pid = ?", pid).First(&post).Error; err != nil {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	var comments []models.Comment
	db.DB.Preload("User").
		Where("post_id = ?", post.ID).
		Order("score DESC, created_at ASC").
		Find(&comments)
	post.CommentCount = len(comments)

	c.JSON(http.StatusOK, gin.H{
		"post":         post,
		"content_html": utils.RenderMarkdown(post.Content),
		"comments":     comments,
	})
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// CreateComment 发表评论 POST /p/:pid/comment
func (h *StoryHandler) CreateComment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "login required")
		return
	}

	var post models.Post
	if err := db.DB.Where("pid = ?", c.Param("pid")).First(&post).Error; err != nil {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		JSONError(c, http.StatusBadRequest, "content is required")
		return
	}

	// 父评论必须属于同一篇帖子
	if req.ParentID != nil {
		var parent models.Comment
		if err := db.DB.First(&parent, *req.ParentID).Error; err != nil || parent.PostID != post.ID {
			JSONError(c, http.StatusBadRequest, "invalid parent comment")
			return
		}
	}

	comment := models.Comment{
		Cid:      utils.RandomID(8),
		PostID:   post.ID,
		UserID:   user.ID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create comment")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

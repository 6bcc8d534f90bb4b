package handlers

import (
	"net/http"
	"verdant/internal/db"
	"verdant/internal/middleware"
	"verdant/internal/models"
	"verdant/internal/services"
	"verdant/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile 用户主页 GET /u/:id：karma 分类计数和等级
func (h *UserHandler) Profile(c *gin.Context) {
	var user models.User
	if err := db.DB.First(&user, utils.StringToUint(c.Param("id"))).Error; err != nil {
		JSONError(c, http.StatusNotFound, "user not found")
		return
	}

	levelName, levelIcon := services.KarmaLevel(user.TotalKarma())

	var posts []models.Post
	db.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(30).
		Find(&posts)
	fillCommentCounts(posts)

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"total_karma": user.TotalKarma(),
		"level":       gin.H{"name": levelName, "icon": levelIcon},
		"posts":       posts,
	})
}

// KarmaLogs 我的 karma 明细 GET /dashboard/karma
func (h *UserHandler) KarmaLogs(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "login required")
		return
	}

	page := pageParam(c)

	var logs []models.KarmaLog
	db.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&logs)

	c.JSON(http.StatusOK, gin.H{
		"logs":          logs,
		"page":          page,
		"post_karma":    user.PostKarma,
		"comment_karma": user.CommentKarma,
	})
}

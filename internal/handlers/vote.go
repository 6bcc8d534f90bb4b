package handlers

import (
	"net/http"
	"verdant/internal/middleware"
	"verdant/internal/models"
	"verdant/internal/scoring"
	"verdant/internal/services"
	"verdant/internal/utils"

	"github.com/gin-gonic/gin"
)

// 对外展示的票数统一加 ±10% 噪声，防止精确探测
const voteFuzzPercent = 0.1

type VoteHandler struct {
	voting *services.VotingService
}

func NewVoteHandler(voting *services.VotingService) *VoteHandler {
	return &VoteHandler{voting: voting}
}

type castVoteRequest struct {
	VoteValue int `json:"vote_value" binding:"required"`
}

// parseTarget 解析 :type/:id 路径参数
func parseTarget(c *gin.Context) (models.TargetKind, uint, bool) {
	kind := models.TargetKind(c.Param("type"))
	if !kind.Valid() {
		JSONError(c, http.StatusBadRequest, "type must be post or comment")
		return "", 0, false
	}
	id := utils.StringToUint(c.Param("id"))
	if id == 0 {
		JSONError(c, http.StatusBadRequest, "invalid target id")
		return "", 0, false
	}
	return kind, id, true
}

// votableJSON 投票后返回的目标快照，计数做了模糊处理
func votableJSON(target models.Votable) gin.H {
	up, down := target.VoteCounts()
	body := gin.H{
		"id":        target.VotableID(),
		"kind":      target.VotableKind(),
		"upvotes":   scoring.FuzzCount(up, voteFuzzPercent),
		"downvotes": scoring.FuzzCount(down, voteFuzzPercent),
		"score":     target.VoteScore(),
	}
	if post, ok := target.(*models.Post); ok {
		body["hot_score"] = post.HotScore
	}
	return body
}

// Cast 投票或改票 POST /vote/:type/:id
func (h *VoteHandler) Cast(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "login required")
		return
	}

	kind, targetID, ok := parseTarget(c)
	if !ok {
		return
	}

	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "vote_value is required")
		return
	}

	vote, target, err := h.voting.CastVote(c.Request.Context(), user.ID, kind, targetID, req.VoteValue)
	if err != nil {
		JSONError(c, voteErrorStatus(err), err.Error())
		return
	}

	// 票数变了，热门/争议等列表页缓存一并失效
	services.GetRankingService().InvalidateListings()

	c.JSON(http.StatusOK, gin.H{
		"vote": gin.H{
			"vote_value": vote.VoteValue,
			"created_at": vote.CreatedAt,
			"updated_at": vote.UpdatedAt,
		},
		"target": votableJSON(target),
	})
}

// Retract 撤票 DELETE /vote/:type/:id
// 没投过票也返回 200，changed 为 false
func (h *VoteHandler) Retract(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "login required")
		return
	}

	kind, targetID, ok := parseTarget(c)
	if !ok {
		return
	}

	target, changed, err := h.voting.RetractVote(c.Request.Context(), user.ID, kind, targetID)
	if err != nil {
		JSONError(c, voteErrorStatus(err), err.Error())
		return
	}

	if changed {
		services.GetRankingService().InvalidateListings()
	}

	c.JSON(http.StatusOK, gin.H{
		"changed": changed,
		"target":  votableJSON(target),
	})
}

// Status 查询当前用户对目标的投票 GET /vote/:type/:id
func (h *VoteHandler) Status(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "login required")
		return
	}

	kind, targetID, ok := parseTarget(c)
	if !ok {
		return
	}

	vote, err := h.voting.CurrentVote(c.Request.Context(), user.ID, kind, targetID)
	if err != nil {
		JSONError(c, voteErrorStatus(err), err.Error())
		return
	}

	if vote == nil {
		c.JSON(http.StatusOK, gin.H{"has_voted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"has_voted":  true,
		"vote_value": vote.VoteValue,
		"created_at": vote.CreatedAt,
		"updated_at": vote.UpdatedAt,
	})
}

package services

import (
	"verdant/internal/models"
)

// karma 动作常量
const (
	ActionPostLiked        = "帖子获赞"
	ActionPostDownvoted    = "帖子被踩"
	ActionCommentLiked     = "评论获赞"
	ActionCommentDownvoted = "评论被踩"
	ActionVoteRetracted    = "投票被撤回"
)

// karmaAction 按目标类型和 karma 变化方向选择动作描述
func karmaAction(kind models.TargetKind, delta int, retracted bool) string {
	if retracted {
		return ActionVoteRetracted
	}
	if kind == models.TargetPost {
		if delta >= 0 {
			return ActionPostLiked
		}
		return ActionPostDownvoted
	}
	if delta >= 0 {
		return ActionCommentLiked
	}
	return ActionCommentDownvoted
}

// KarmaLevel 根据总 karma 返回用户等级，个人主页展示用
func KarmaLevel(karma int) (name string, icon string) {
	switch {
	case karma >= 1000:
		return "远古森林", "🌳"
	case karma >= 200:
		return "绿洲", "🌴"
	case karma >= 50:
		return "灌木", "🌿"
	case karma >= 10:
		return "嫩芽", "🌱"
	default:
		return "种子", "🫘"
	}
}

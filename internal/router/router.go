package router

import (
	"verdant/internal/handlers"
	"verdant/internal/middleware"
	"verdant/internal/services"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, voting *services.VotingService) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	storyHandler := handlers.NewStoryHandler()
	voteHandler := handlers.NewVoteHandler(voting)
	userHandler := handlers.NewUserHandler()
	newsHandler := handlers.NewNewsHandler()

	// 公共路由 (Public Routes)
	r.GET("/", storyHandler.ListTop)                         // 热门（hot_score 排序）
	r.GET("/new", storyHandler.ListNew)                      // 最新
	r.GET("/rising", storyHandler.ListRising)                // 上升榜（24 小时窗口）
	r.GET("/controversial", storyHandler.ListControversial)  // 争议榜
	r.GET("/p/:pid", storyHandler.Detail)                    // 帖子详情
	r.GET("/u/:id", userHandler.Profile)                     // 用户主页
	r.GET("/news/sources", newsHandler.Sources)              // 新闻源列表

	r.POST("/signup", authHandler.Register) // 注册
	r.POST("/login", authHandler.Login)     // 登录
	r.POST("/logout", authHandler.Logout)   // 退出登录

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/submit", storyHandler.Create)                // 发帖
		authorized.POST("/p/:pid/comment", storyHandler.CreateComment) // 发表评论

		authorized.POST("/vote/:type/:id", voteHandler.Cast)      // 投票/改票
		authorized.DELETE("/vote/:type/:id", voteHandler.Retract) // 撤票
		authorized.GET("/vote/:type/:id", voteHandler.Status)     // 我的投票状态

		authorized.POST("/news/refresh", newsHandler.Refresh) // 手动触发采集
	}

	// 仪表盘路由 (Dashboard Routes)
	dashboard := r.Group("/dashboard")
	dashboard.Use(middleware.AuthRequired())
	{
		dashboard.GET("/karma", userHandler.KarmaLogs) // karma 明细
	}
}

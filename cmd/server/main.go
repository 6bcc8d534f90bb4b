package main

import (
	"log"
	"os"
	"time"
	"verdant/internal/db"
	"verdant/internal/middleware"
	"verdant/internal/router"
	"verdant/internal/services"
	"verdant/internal/store"
	"verdant/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// 投票核心：gorm 存储 + 评分引擎
	voting := services.NewVotingService(store.NewGormStore(db.DB))

	// 后台服务：排名复核 + 定时新闻采集
	services.GetRankingService()
	interval := time.Duration(utils.StringToInt(os.Getenv("NEWS_FETCH_INTERVAL_MINUTES"))) * time.Minute
	services.GetNewsService().StartScheduledIngestion(interval)

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("verdant_session", sessionStore))

	// Middleware
	r.Use(middleware.LoadUser())

	// Routes
	router.RegisterRoutes(r, voting)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Verdant server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

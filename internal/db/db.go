package db

import (
	"log"
	"os"
	"verdant/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// BotEmail 新闻采集机器人账号，所有自动发布的帖子归属它
const BotEmail = "bot@verdant.local"

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=verdant port=5432 sslmode=disable TimeZone=UTC"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	// Auto Migrate
	err = DB.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.KarmaLog{},
		&models.NewsSource{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedBotUser()
	seedNewsSources()
}

// seedBotUser 创建系统机器人账号（幂等）
func seedBotUser() {
	var count int64
	DB.Model(&models.User{}).Where("email = ?", BotEmail).Count(&count)
	if count > 0 {
		return
	}

	bot := models.User{
		Username: "VerdantBot",
		Email:    BotEmail,
		Password: "!", // 不可登录
		Avatar:   "🤖",
		Bio:      "自动采集环境新闻的系统账号",
		Role:     "bot",
	}
	if err := DB.Create(&bot).Error; err != nil {
		log.Printf("Failed to create bot user: %v", err)
		return
	}
	log.Println("Bot user created")
}

// seedNewsSources 预置环境新闻 RSS 源
func seedNewsSources() {
	var count int64
	DB.Model(&models.NewsSource{}).Count(&count)
	if count > 0 {
		log.Println("News sources already seeded, skipping")
		return
	}

	sources := []models.NewsSource{
		{Name: "Climate Central", RSSURL: "http://feeds.feedburner.com/climatecentral/djOO", CategoryFocus: "climate-change", Description: "Climate science and solutions"},
		{Name: "Yale Environment 360", RSSURL: "https://e360.yale.edu/feed.xml", CategoryFocus: "environmental-policy", Description: "Yale's environmental magazine"},
		{Name: "EcoWatch", RSSURL: "https://www.ecowatch.com/feed", CategoryFocus: "environmental-news", Description: "Environmental news and sustainability"},
		{Name: "Grist Environmental News", RSSURL: "https://grist.org/feed/", CategoryFocus: "environmental-policy", Description: "Environmental news and climate solutions"},
		{Name: "Mongabay", RSSURL: "https://news.mongabay.com/feed/", CategoryFocus: "wildlife-conservation", Description: "Environmental science and conservation news"},
	}

	for _, source := range sources {
		if err := DB.Create(&source).Error; err != nil {
			log.Printf("Failed to create news source %s: %v", source.Name, err)
		}
	}
	log.Println("Initial news sources created")
}

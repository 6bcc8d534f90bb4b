package services

import (
	"log"
	"net/http"
	"strings"
	"time"
	"verdant/internal/db"
	"verdant/internal/models"
	"verdant/internal/scoring"
	"verdant/internal/utils"

	"github.com/mmcdole/gofeed"
)

// minRelevance 低于这个相关性的条目不入库
const minRelevance = 0.3

// 环境主题的检索词，标题/摘要命中主词的权重远高于普通关键词
var primarySearchTerms = []string{
	"environmental conservation",
	"climate change",
	"renewable energy",
	"biodiversity",
	"ecosystem restoration",
	"green technology",
	"carbon capture",
	"sustainable development",
}

var environmentalKeywords = []string{
	"carbon", "emission", "pollution", "conservation", "ecosystem",
	"renewable", "sustainable", "green", "climate", "environment",
	"biodiversity", "habitat", "species", "energy", "solar", "wind",
	"electric", "ev", "vehicle", "plastic", "waste", "recycling",
	"nature", "wildlife", "forest", "ocean", "water", "air",
	"ecology", "organic", "trees", "earth", "planet", "eco",
	"natural", "clean", "environmental", "sustainability",
}

// categoryMapping 分类标签及其命中词
var categoryMapping = map[string][]string{
	"climate-change":        {"climate change", "global warming", "carbon emissions", "greenhouse gas"},
	"renewable-energy":      {"solar power", "wind energy", "renewable energy", "clean energy", "green energy"},
	"wildlife-conservation": {"wildlife protection", "endangered species", "biodiversity", "conservation biology"},
	"ecosystem-restoration": {"ecosystem restoration", "habitat restoration", "rewilding", "forest restoration"},
	"ocean-conservation":    {"ocean conservation", "marine conservation", "coral reef", "overfishing"},
	"green-technology":      {"green technology", "cleantech", "environmental technology", "green innovation"},
	"carbon-capture":        {"carbon capture", "carbon sequestration", "direct air capture", "ccus"},
	"sustainable-transport": {"electric vehicles", "sustainable transport", "green mobility"},
}

var paywallIndicators = []string{
	"premium", "subscribe", "paywall", "members only", "subscription required",
}

// NewsService 环境新闻采集：抓取 RSS 源，按相关性过滤后
// 以机器人账号发成社区帖子
type NewsService struct {
	parser *gofeed.Parser
}

var newsService *NewsService

// GetNewsService 获取新闻采集单例
func GetNewsService() *NewsService {
	if newsService == nil {
		httpClient := &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		}

		parser := gofeed.NewParser()
		parser.Client = httpClient
		parser.UserAgent = "VerdantBot/1.0 (+https://verdant.example.com)"

		newsService = &NewsService{parser: parser}
	}
	return newsService
}

// relevanceScore 标题 + 摘要的环境相关性，0.0 - 1.0。
// 主词每命中一个 +0.3（封顶 1.0），普通关键词每个 +0.05（封顶 0.7）。
func relevanceScore(title, description string) float64 {
	text := strings.ToLower(title + " " + description)

	primaryMatches := 0
	for _, term := range primarySearchTerms {
		if strings.Contains(text, term) {
			primaryMatches++
		}
	}
	keywordMatches := 0
	for _, keyword := range environmentalKeywords {
		if strings.Contains(text, keyword) {
			keywordMatches++
		}
	}

	primaryScore := float64(primaryMatches) * 0.3
	if primaryScore > 1.0 {
		primaryScore = 1.0
	}
	keywordScore := float64(keywordMatches) * 0.05
	if keywordScore > 0.7 {
		keywordScore = 0.7
	}

	score := primaryScore + keywordScore
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// categorize 返回命中词最多的分类；都没命中时退回源自身的主题倾向
func categorize(title, description, fallback string) string {
	text := strings.ToLower(title + " " + description)

	best := ""
	bestScore := 0
	for category, keywords := range categoryMapping {
		score := 0
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				score++
			}
		}
		// 平分时取字典序靠前的，保证结果稳定
		if score > bestScore || (score == bestScore && score > 0 && category < best) {
			best = category
			bestScore = score
		}
	}

	if best != "" {
		return best
	}
	if fallback != "" {
		return fallback
	}
	return "environmental-news"
}

// detectPaywall 粗粒度付费墙启发式：描述里出现订阅类字样即视为付费内容
func detectPaywall(description string) bool {
	text := strings.ToLower(description)
	for _, indicator := range paywallIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}

// IngestAll 抓取全部启用的源，返回新入库的帖子数
func (s *NewsService) IngestAll() int {
	var bot models.User
	if err := db.DB.Where("email = ?", db.BotEmail).First(&bot).Error; err != nil {
		log.Printf("新闻采集跳过：机器人账号不存在: %v", err)
		return 0
	}

	var sources []models.NewsSource
	if err := db.DB.Where("active = ?", true).Find(&sources).Error; err != nil {
		log.Printf("读取新闻源失败: %v", err)
		return 0
	}

	total := 0
	for i := range sources {
		total += s.fetchSource(&sources[i], &bot)
	}
	log.Printf("新闻采集完成，共入库 %d 篇", total)
	return total
}

// fetchSource 处理单个源，返回入库条数
func (s *NewsService) fetchSource(source *models.NewsSource, bot *models.User) int {
	log.Printf("抓取新闻源: %s", source.Name)

	feed, err := s.parser.ParseURL(source.RSSURL)
	if err != nil {
		log.Printf("抓取 %s 失败: %v", source.Name, err)
		return 0
	}

	maxItems := source.MaxPerFetch
	if maxItems <= 0 {
		maxItems = 10
	}

	saved := 0
	for _, item := range feed.Items {
		if saved >= maxItems {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}

		description := utils.StripTags(item.Description)

		// 相关性不够的条目直接丢弃
		if relevanceScore(item.Title, description) < minRelevance {
			continue
		}
		// 付费内容不进社区
		if detectPaywall(description) {
			continue
		}

		// URL 去重
		var count int64
		db.DB.Model(&models.Post{}).Where("url = ?", item.Link).Count(&count)
		if count > 0 {
			continue
		}

		createdAt := time.Now()
		if item.PublishedParsed != nil {
			createdAt = item.PublishedParsed.UTC()
		}

		post := models.Post{
			Pid:        utils.RandomID(8),
			UserID:     bot.ID,
			Title:      item.Title,
			URL:        item.Link,
			Content:    description,
			SourceType: "news",
			Category:   categorize(item.Title, description, source.CategoryFocus),
			CreatedAt:  createdAt,
			HotScore:   scoring.HotScore(0, 0, createdAt),
		}
		if err := db.DB.Create(&post).Error; err != nil {
			log.Printf("入库失败 %s: %v", item.Link, err)
			continue
		}

		// 采集路径绕过了投票事务，交给排名服务统一复核 hot_score
		GetRankingService().ScheduleUpdate(post.ID)
		saved++
	}

	now := time.Now()
	source.LastFetchedAt = &now
	db.DB.Model(source).UpdateColumn("last_fetched_at", now)

	log.Printf("新闻源 %s 入库 %d 篇", source.Name, saved)
	return saved
}

// StartScheduledIngestion 启动定时采集，interval 为 0 时默认每 6 小时一次
func (s *NewsService) StartScheduledIngestion(interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			s.IngestAll()
		}
	}()
}

package scoring

import (
	"math"
	"math/rand"
	"time"
)

// Epoch hot score 的固定参考时间（站点上线日），不随运行时间变化
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	// hotDecaySeconds 45000 秒 ≈ 12.5 小时：每过半天左右，
	// 新帖相对旧帖多出 1 分的时间加成
	hotDecaySeconds = 45000.0

	// RisingWindowHours rising 榜只看这个窗口内的帖子，超龄直接为 0
	RisingWindowHours = 24.0
)

// HotScore Reddit 式热度分：对数压缩的票数 + 线性的时间加成。
// 前 10 票的影响远大于后面 100 票；其余条件相同时新帖排在前面。
// 只依赖计数器和创建时间，每次投票后重算一次即可。
func HotScore(upvotes, downvotes int, createdAt time.Time) float64 {
	score := upvotes - downvotes

	var order float64
	if score != 0 {
		order = math.Log10(math.Max(math.Abs(float64(score)), 1))
		if score < 0 {
			order = -order
		}
	}

	seconds := createdAt.UTC().Sub(Epoch).Seconds()
	return order + seconds/hotDecaySeconds
}

// ControversialScore 争议分：票多且接近对半开的内容得分高。
// balance 为 0 表示完全对半，为 1 表示一边倒。
// 1000/1000 会排在 1000/0 和 5/5 之前。
func ControversialScore(upvotes, downvotes int) float64 {
	score := upvotes - downvotes
	total := upvotes + downvotes

	if total == 0 {
		return 0
	}

	balance := math.Abs(float64(score)) / float64(total)
	return float64(total) * (1 - balance)
}

// RisingScore 上升分：净票数除以 (小时龄+2)^1.5 的速度型分数。
// 超过 24 小时窗口的内容直接返回 0（硬截断，不是衰减）；
// +2 避免刚发布的内容分母过小；净票为负时不返回负分。
func RisingScore(upvotes, downvotes int, createdAt, now time.Time) float64 {
	hoursOld := now.Sub(createdAt).Hours()
	if hoursOld > RisingWindowHours {
		return 0
	}

	score := upvotes - downvotes
	velocity := float64(score) / math.Pow(hoursOld+2, 1.5)
	return math.Max(velocity, 0)
}

// VoteWeight karma 换算的单票权重：1 + log10(karma+1)。
// karma 0 -> 1.0，9 -> 2.0，99 -> 3.0，999 -> 4.0，收益递减。
// 应用到计数器前会被截断成整数（见 VotingService），
// 所以 karma < 9 的用户每票固定移动 1。
func VoteWeight(karma int) float64 {
	if karma < 0 {
		karma = 0
	}
	return 1 + math.Log10(float64(karma)+1)
}

// FuzzCount 对对外展示的票数加 ±fuzzPercent 的随机噪声，
// 防止通过精确计数探测投票行为。只用于展示，绝不回写存储。
func FuzzCount(count int, fuzzPercent float64) int {
	if count == 0 {
		return 0
	}

	fuzz := int(float64(count) * fuzzPercent)
	if fuzz == 0 {
		fuzz = 1
	}
	return count + rand.Intn(2*fuzz+1) - fuzz
}

package scoring

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestHotScore(t *testing.T) {
	// 15 赞 5 踩，创建时间为 Epoch + 90000s：
	// order = log10(10) = 1.0，时间项 = 90000/45000 = 2.0
	createdAt := Epoch.Add(90000 * time.Second)
	if got := HotScore(15, 5, createdAt); !almostEqual(got, 3.0) {
		t.Errorf("HotScore(15, 5) = %v, want 3.0", got)
	}

	// 净票为 0 时 order 为 0，只剩时间项
	if got := HotScore(7, 7, createdAt); !almostEqual(got, 2.0) {
		t.Errorf("HotScore(7, 7) = %v, want 2.0", got)
	}

	// 净票为负时 order 取负号
	if got := HotScore(0, 10, Epoch); !almostEqual(got, -1.0) {
		t.Errorf("HotScore(0, 10) = %v, want -1.0", got)
	}

	// 非 UTC 时区的时间按同一时刻换算，结果一致
	cst := time.FixedZone("CST", 8*3600)
	if got := HotScore(15, 5, createdAt.In(cst)); !almostEqual(got, 3.0) {
		t.Errorf("HotScore with CST zone = %v, want 3.0", got)
	}
}

func TestControversialScore(t *testing.T) {
	tests := []struct {
		up, down int
		want     float64
	}{
		{0, 0, 0},     // 没有票不算争议
		{50, 50, 100}, // 完全对半：total * 1
		{100, 0, 0},   // 一边倒：total * 0
		{1000, 1000, 2000},
		{5, 5, 10},
		{75, 25, 50}, // balance=0.5 -> 100 * 0.5
	}
	for _, tt := range tests {
		if got := ControversialScore(tt.up, tt.down); !almostEqual(got, tt.want) {
			t.Errorf("ControversialScore(%d, %d) = %v, want %v", tt.up, tt.down, got, tt.want)
		}
	}

	// 同样对半开时票数多的更争议
	if ControversialScore(1000, 1000) <= ControversialScore(5, 5) {
		t.Error("1000/1000 should outrank 5/5")
	}
	// 对半开要排在一边倒前面
	if ControversialScore(1000, 1000) <= ControversialScore(1000, 0) {
		t.Error("1000/1000 should outrank 1000/0")
	}
}

func TestRisingScore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 超过 24 小时窗口：无论票数多少都是 0
	old := now.Add(-25 * time.Hour)
	if got := RisingScore(10, 0, old, now); got != 0 {
		t.Errorf("RisingScore beyond window = %v, want 0", got)
	}

	// 2 小时前 8 净票：8 / (2+2)^1.5 = 1.0
	recent := now.Add(-2 * time.Hour)
	if got := RisingScore(8, 0, recent, now); !almostEqual(got, 1.0) {
		t.Errorf("RisingScore(8, 0, 2h) = %v, want 1.0", got)
	}

	// 净票为负不返回负分
	if got := RisingScore(1, 5, recent, now); got != 0 {
		t.Errorf("RisingScore negative net = %v, want 0", got)
	}

	// 票数相同的情况下，更新的帖子分更高
	newer := RisingScore(10, 0, now.Add(-1*time.Hour), now)
	older := RisingScore(10, 0, now.Add(-10*time.Hour), now)
	if newer <= older {
		t.Errorf("newer post should rise faster: newer=%v older=%v", newer, older)
	}
}

func TestVoteWeight(t *testing.T) {
	tests := []struct {
		karma int
		want  float64
	}{
		{0, 1.0},
		{9, 2.0},
		{99, 3.0},
		{999, 4.0},
		{-5, 1.0}, // 防御：负 karma 按 0 处理
	}
	for _, tt := range tests {
		if got := VoteWeight(tt.karma); !almostEqual(got, tt.want) {
			t.Errorf("VoteWeight(%d) = %v, want %v", tt.karma, got, tt.want)
		}
	}
}

func TestFuzzCount(t *testing.T) {
	if got := FuzzCount(0, 0.1); got != 0 {
		t.Errorf("FuzzCount(0) = %d, want 0", got)
	}

	// 噪声不超过 ±10%（小计数时至少 ±1）
	for i := 0; i < 100; i++ {
		got := FuzzCount(100, 0.1)
		if got < 90 || got > 110 {
			t.Fatalf("FuzzCount(100) = %d, outside [90, 110]", got)
		}
		got = FuzzCount(3, 0.1)
		if got < 2 || got > 4 {
			t.Fatalf("FuzzCount(3) = %d, outside [2, 4]", got)
		}
	}
}

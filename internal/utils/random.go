package utils

import (
	"math/rand"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomID 生成帖子/评论的短外链 ID
func RandomID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}

// GetRandomEmoji 返回一个随机 emoji 用于默认头像
func GetRandomEmoji() string {
	emojis := []string{"🌍", "🌊", "🌱", "🌲", "🦜", "🐋", "🦋", "🐢", "🌵", "🍄", "🪸", "🦉"}
	return emojis[rand.Intn(len(emojis))]
}

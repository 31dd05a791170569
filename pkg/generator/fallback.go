package generator

import "github.com/cespare/xxhash/v2"

// DefaultStockImages は外部エンドポイントが応答しない場合に差し替えるストック画像です。
var DefaultStockImages = []string{
	"https://images.unsplash.com/photo-1506744038136-46273834b3fb?w=1024&q=80",
	"https://images.unsplash.com/photo-1501785888041-af3ef285b470?w=1024&q=80",
	"https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05?w=1024&q=80",
	"https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=1024&q=80",
	"https://images.unsplash.com/photo-1518837695005-2083093ee35b?w=1024&q=80",
	"https://images.unsplash.com/photo-1500530855697-b586d89ba3ee?w=1024&q=80",
}

// SelectFallback はプロンプトのハッシュ値からストック画像を1つ選びます。
// 同じプロンプトに対しては常に同じ画像を返します。stock が空の場合は空文字です。
func SelectFallback(prompt string, stock []string) string {
	if len(stock) == 0 {
		return ""
	}
	return stock[xxhash.Sum64String(prompt)%uint64(len(stock))]
}

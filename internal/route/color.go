package route

import "unicode/utf16"

// Palette - цвета маршрутов, индекс выбирается хешем id путешествия
var Palette = []string{
	"#3B82F6",
	"#EF4444",
	"#10B981",
	"#F59E0B",
	"#8B5CF6",
	"#06B6D4",
	"#F97316",
	"#84CC16",
	"#EC4899",
	"#6366F1",
}

// JourneyColor возвращает стабильный цвет для путешествия.
// Хеш h = h*31 + c по UTF-16 code units с переполнением int32.
func JourneyColor(journeyID string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(journeyID)) {
		h = h*31 + int32(c)
	}

	idx := int64(h)
	if idx < 0 {
		idx = -idx
	}
	return Palette[idx%int64(len(Palette))]
}

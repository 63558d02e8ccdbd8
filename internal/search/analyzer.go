package search

import (
	"github.com/hyperjump/frontdesk/internal/keyword"
)

var availabilityTokens = tokenSet(
	"available", "availability", "vacant", "vacancy", "free", "open", "empty", "unoccupied", "spare",
)

var roomNumberTokens = tokenSet("number", "numbers", "which", "list")

func tokenSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Analysis is what the engine reads from an utterance besides its date.
type Analysis struct {
	Tokens           map[string]struct{}
	AvailabilityOnly bool
	WantsRoomNumbers bool
	RoomType         string
}

// AnalyzeQuery extracts keyword tokens, availability and room-number intent, and the room
// type named by text.
func AnalyzeQuery(text string, roomTypes *keyword.RoomTypeMatcher) Analysis {
	all := keyword.TokenSet(text)
	return Analysis{
		Tokens:           keyword.QueryTokens(text),
		AvailabilityOnly: keyword.Intersects(all, availabilityTokens),
		WantsRoomNumbers: keyword.Intersects(all, roomNumberTokens),
		RoomType:         roomTypes.Detect(text),
	}
}

package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/iyunix/go-dreamer/internal/domain"
)

const minInterpretableRunes = 20

var (
	simpleQueryMarkers    = []string{"안녕", "누구", "뭐야", "해몽이 뭐", "어떻게"}
	dreamHistoryMarkers   = []string{"꿈", "꾸었", "꿈에서", "꿈속"}
	interpretationMarkers = []string{"해몽", "꿈의 상징", "꿈이 나타내는", "무의식", "길흉", "오행", "상징적 의미", "심리적 상태"}
)

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// IsDreamInterpretation decides whether a bot reply is an actual reading of a
// described dream, as opposed to small talk.
func IsDreamInterpretation(userMessage, botReply string, history []domain.Message) bool {
	if utf8.RuneCountInString(userMessage) < minInterpretableRunes || containsAny(userMessage, simpleQueryMarkers) {
		return false
	}

	describesDream := strings.Contains(userMessage, "꿈")
	if !describesDream {
		for _, m := range history {
			if m.Type == domain.MessageTypeUser && containsAny(m.Content, dreamHistoryMarkers) {
				describesDream = true
				break
			}
		}
	}

	return describesDream && containsAny(botReply, interpretationMarkers)
}

package ai

import "strings"

const (
	// PremiumImageSuffix is appended to interpretations for premium users.
	PremiumImageSuffix = "\n\n🎨 **이미지 생성 가능**\n위 해몽 내용을 아름다운 이미지로 형상화할 수 있습니다. \"이미지 생성\" 버튼을 눌러보세요!"
	// UpsellImageSuffix is appended to interpretations for free users.
	UpsellImageSuffix = "\n\n💎 **프리미엄 기능 - 이미지 생성**\n프리미엄 구독 시 꿈을 아름다운 이미지로 형상화해드립니다. 더욱 생생한 해몽 경험을 원하신다면 프리미엄을 이용해보세요!"

	EmptyReplyText   = "죄송합니다. 꿈 해몽을 생성하는데 문제가 발생했습니다. 다시 시도해주세요."
	UnavailableText  = "죄송합니다. 현재 서비스에 일시적인 문제가 있습니다. 잠시 후 다시 시도해주세요."
	summarySystem    = "해몽 내용을 이미지 생성에 적합하도록 100자 이내로 핵심 키워드와 상징적 의미만 간결하게 요약해주세요. 구체적인 시각적 요소와 감정을 포함하되, 불필요한 설명은 제거하세요."
	summaryUserLabel = "다음 해몽 내용을 요약해주세요:\n"
)

var suffixMarkers = []string{
	"\n\n🎨 **이미지 생성 가능**",
	"\n\n💎 **프리미엄 기능 - 이미지 생성**",
}

// StripImageSuffix removes the premium or upsell footer from a stored bot reply.
func StripImageSuffix(content string) string {
	for _, marker := range suffixMarkers {
		if i := strings.Index(content, marker); i >= 0 {
			content = content[:i]
		}
	}
	return content
}

package chat

import (
	"errors"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/repository"
)

const (
	msgRoomNotFound    = "chat room not found"
	msgRoomForbidden   = "unauthorized access to chat room"
	msgNoDream         = "해몽할 꿈 내용을 찾을 수 없습니다. 먼저 꿈을 입력해주세요."
	msgPremiumRequired = "프리미엄 구독이 필요한 기능입니다. 업그레이드 후 이용해주세요."
	msgImageFailed     = "이미지 생성에 실패했습니다. 다시 시도해주세요."
	msgImageError      = "이미지 생성 중 오류가 발생했습니다."
	msgImageCreated    = "이미지가 성공적으로 생성되었습니다."
	msgImageContent    = "꿈의 이미지를 생성했습니다."
	msgImageDisabled   = "이미지 생성 기능이 비활성화되어 있습니다."
	msgVideoPremium    = "쇼츠 영상 생성은 프리미엄 사용자만 이용 가능합니다."
	msgVideoDisabled   = "영상 생성 기능이 비활성화되어 있습니다."
	msgRoomExists      = "오늘의 채팅방이 이미 존재합니다."
)

// roomLookupError maps repository errors on a room read to service errors.
func roomLookupError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NewNotFoundError(op, msgRoomNotFound)
	}
	return apperr.NewInternalError(op, "could not load chat room", err)
}

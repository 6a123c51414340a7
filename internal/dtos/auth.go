package dtos

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Nickname string `json:"nickname,omitempty" validate:"omitempty,min=2,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// CheckNicknameQuery is the check-nickname query string.
type CheckNicknameQuery struct {
	Nickname string `json:"nickname" validate:"required,min=1,max=8"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname" validate:"required"`
}

type NicknameAvailability struct {
	Available bool   `json:"available"`
	Nickname  string `json:"nickname"`
}

type GeneratedNickname struct {
	Nickname string `json:"nickname"`
}

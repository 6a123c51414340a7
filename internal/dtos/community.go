package dtos

type CreatePostRequest struct {
	ChatRoomID string   `json:"chatRoomId" validate:"required"`
	Title      string   `json:"title,omitempty" validate:"max=100"`
	Tags       []string `json:"tags,omitempty" validate:"max=10,dive,max=30"`
	IsPublic   *bool    `json:"isPublic,omitempty"`
}

type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required,min=1,max=1000"`
	ParentID *string `json:"parentId,omitempty"`
}

// Envelope wraps every community response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

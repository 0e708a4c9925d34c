package dto

// DetectCategoryRequest payload.
type DetectCategoryRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// ChatRequest asks for a reply within a named category.
type ChatRequest struct {
	Category string `json:"category" validate:"required"`
	Message  string `json:"message" validate:"required,max=2000"`
}

// ChatReplyResponse is the chatbot answer.
type ChatReplyResponse struct {
	Reply           string            `json:"reply"`
	Category        *CategoryResponse `json:"category"`
	MatchedKeywords []string          `json:"matched_keywords"`
	Generated       bool              `json:"generated"`
}

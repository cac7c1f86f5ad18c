package models

type SubscriptionRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type SubscriptionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

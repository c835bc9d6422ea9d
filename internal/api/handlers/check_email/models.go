package check_email

// CheckEmailRequest HTTP request model
type CheckEmailRequest struct {
	Email string `json:"email"`
}

// CheckEmailResponse HTTP response model
type CheckEmailResponse struct {
	Registered bool `json:"registered"`
}

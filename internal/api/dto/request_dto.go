package dto

// ServiceRequestCreateRequest payload for lead/contact submissions.
type ServiceRequestCreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

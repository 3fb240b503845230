package dto

// RoleUpdateRequest payload for the admin role-promotion endpoint.
type RoleUpdateRequest struct {
	Role string `json:"role"`
}

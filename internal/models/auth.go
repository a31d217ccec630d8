package models

import "github.com/golang-jwt/jwt/v5"

// AdminRole is the only role allowed onto the admin endpoints.
const AdminRole = "admin"

// AdminClaims represents the JWT payload carried by admin bearer tokens.
type AdminClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

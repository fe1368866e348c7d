package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the actor identity carried on access tokens. The core
// validates tokens only; issuance belongs to the platform's auth service.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	AgencyID string `json:"agency_id"`
	jwt.RegisteredClaims
}

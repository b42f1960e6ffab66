package model

import "github.com/golang-jwt/jwt"

// UserClaims is the JWT claim set minted by the hosted auth platform. Only the
// subject (user id) matters to this service.
type UserClaims struct {
	UserName string `json:"user_name"`
	jwt.StandardClaims
}

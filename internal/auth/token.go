// Package auth 签发和校验魔法链接令牌。登录本身不在引擎范围内，
// 这里只提供边界上的令牌原语。
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer 魔法链接令牌签发器
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewTokenIssuer 创建签发器；expireDays <= 0 时默认 7 天
func NewTokenIssuer(secret string, expireDays int) *TokenIssuer {
	if expireDays <= 0 {
		expireDays = 7
	}
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: time.Duration(expireDays) * 24 * time.Hour,
	}
}

// Create 为邮箱签发登录令牌
func (t *TokenIssuer) Create(email string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.expiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Read 校验令牌并取回邮箱
func (t *TokenIssuer) Read(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

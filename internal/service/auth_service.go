package service

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/copanier-next/internal/auth"
	"github.com/copanier-next/internal/logger"
)

// AuthService 无口令登录：给邮箱发一条带令牌的魔法链接，
// 点击后用令牌换取身份。
type AuthService struct {
	issuer *auth.TokenIssuer
	email  *EmailService
}

// NewAuthService 创建认证服务
func NewAuthService(issuer *auth.TokenIssuer, email *EmailService) *AuthService {
	return &AuthService{issuer: issuer, email: email}
}

// RequestMagicLink 签发令牌并发送登录邮件。
// 邮件服务未启用时令牌照常签发并返回，方便本地联调。
func (s *AuthService) RequestMagicLink(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	token, err := s.issuer.Create(email)
	if err != nil {
		return "", err
	}
	if err := s.email.SendMagicLink(email, token); err != nil {
		if errors.Is(err, ErrEmailDisabled) {
			logger.Warnw("magic_link_email_disabled", "email", email)
			return token, nil
		}
		return "", err
	}
	logger.Infow("magic_link_sent", "email", email)
	return token, nil
}

// VerifyToken 校验令牌并返回邮箱
func (s *AuthService) VerifyToken(token string) (string, error) {
	return s.issuer.Read(token)
}

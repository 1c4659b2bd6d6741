package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"sort"
	"strings"

	"github.com/copanier-next/internal/config"
	"github.com/copanier-next/internal/models"
)

// EmailService 邮件发送服务：魔法链接、订单确认、目录交接通知
type EmailService struct {
	cfg     *config.EmailConfig
	site    string
	baseURL string
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig, site config.SiteConfig) *EmailService {
	return &EmailService{
		cfg:     cfg,
		site:    site.Name,
		baseURL: strings.TrimRight(site.BaseURL, "/"),
	}
}

// SendMagicLink 发送登录魔法链接
func (s *EmailService) SendMagicLink(toEmail, token string) error {
	subject := fmt.Sprintf("%s 登录链接", s.site)
	body := fmt.Sprintf(
		"点击以下链接登录 %s：\n\n%s/auth/login?token=%s\n\n链接只对本人有效，请勿转发。",
		s.site, s.baseURL, token,
	)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendOrderSummary 发送订单确认：逐行列出最终数量与金额
func (s *EmailService) SendOrderSummary(toEmail string, delivery *models.Delivery, buyerID string) error {
	order, ok := delivery.Orders[buyerID]
	if !ok {
		return ErrOrderNotFound
	}

	refs := make([]string, 0, len(order.Products))
	for ref := range order.Products {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var lines []string
	lines = append(lines, fmt.Sprintf("您在「%s」的订单已登记：", delivery.Name))
	lines = append(lines, "")
	for _, ref := range refs {
		product, found := delivery.GetProduct(ref)
		if !found {
			continue
		}
		quantity := order.Products[ref].Quantity()
		lines = append(lines, fmt.Sprintf("- %s x%d（单价 %s）", product.Name, quantity, product.Price.String()))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("含运费总计：%s", delivery.TotalFor(buyerID).String()))
	if delivery.Where != "" {
		lines = append(lines, fmt.Sprintf("取货地点：%s", delivery.Where))
	}

	subject := fmt.Sprintf("%s 订单确认 - %s", s.site, delivery.Name)
	return s.sendTextEmail(toEmail, subject, strings.Join(lines, "\n"))
}

// SendHandoverNotice 向对接人发送目录交接通知
func (s *EmailService) SendHandoverNotice(toEmail string, oldName, newName, body string) error {
	subject := fmt.Sprintf("%s 配送交接 - %s", s.site, newName)
	text := fmt.Sprintf("配送「%s」的目录已移交给新配送「%s」，请尽快确认报价。", oldName, newName)
	if strings.TrimSpace(body) != "" {
		text += "\n\n" + body
	}
	return s.sendTextEmail(toEmail, subject, text)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	if s.cfg.UseTLS {
		return sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	return sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

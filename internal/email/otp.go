package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	texttpl "text/template"
	"time"
)

//go:embed templates/*
var templatesFS embed.FS

const otpSubject = "Your sign-in code"

// OTPVars son las variables de los templates otp.html / otp.txt.
type OTPVars struct {
	Code    string
	Minutes int
}

// Notifier entrega el OTP al usuario.
type Notifier interface {
	SendOTP(ctx context.Context, to, otp string, validity time.Duration) error
}

// OTPNotifier renderiza el OTP y lo manda con un Sender.
type OTPNotifier struct {
	sender Sender
	html   *template.Template
	text   *texttpl.Template
}

func NewOTPNotifier(s Sender) (*OTPNotifier, error) {
	h, err := template.ParseFS(templatesFS, "templates/otp.html")
	if err != nil {
		return nil, fmt.Errorf("email: parse otp.html: %w", err)
	}
	t, err := texttpl.ParseFS(templatesFS, "templates/otp.txt")
	if err != nil {
		return nil, fmt.Errorf("email: parse otp.txt: %w", err)
	}
	return &OTPNotifier{sender: s, html: h, text: t}, nil
}

// Render devuelve (html, text).
func (n *OTPNotifier) Render(vars OTPVars) (string, string, error) {
	var hb, tb bytes.Buffer
	if err := n.html.Execute(&hb, vars); err != nil {
		return "", "", err
	}
	if err := n.text.Execute(&tb, vars); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

// validityMinutes redondea hacia arriba; nunca menos de 1.
func validityMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

func (n *OTPNotifier) SendOTP(ctx context.Context, to, otp string, validity time.Duration) error {
	html, text, err := n.Render(OTPVars{Code: otp, Minutes: validityMinutes(validity)})
	if err != nil {
		return fmt.Errorf("email: render otp: %w", err)
	}
	return n.sender.Send(ctx, to, otpSubject, html, text)
}

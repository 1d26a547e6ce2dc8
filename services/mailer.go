package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"strings"

	"event-checkin-backend/config"

	"github.com/wneessen/go-mail"
)

// ErrMailerDisabled est retournée quand aucun serveur SMTP n'est configuré
var ErrMailerDisabled = errors.New("envoi d'email désactivé (SMTP non configuré)")

// qrAttachmentName sert aussi de Content-ID pour l'image embarquée
const qrAttachmentName = "qrcode.png"

// Delivery décrit l'email de confirmation d'une inscription
type Delivery struct {
	Email      string
	EventTitle string
	Language   string
	QRImage    []byte
}

// Message est un email libre (envois groupés)
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier livre les emails aux participants
type Notifier interface {
	Deliver(ctx context.Context, d Delivery) error
	Send(ctx context.Context, m Message) error
}

type confirmationContent struct {
	Dir       string
	Subject   string
	Heading   string
	Thanks    string
	Presented string
}

var confirmationTranslations = map[string]confirmationContent{
	"en": {
		Dir:       "ltr",
		Subject:   "Registration Confirmation - %s",
		Heading:   "Registration Successful!",
		Thanks:    "Thank you for registering for %s.",
		Presented: "Please find your QR code below. Present this at the event entrance.",
	},
	"ar": {
		Dir:       "rtl",
		Subject:   "تأكيد التسجيل - %s",
		Heading:   "تم التسجيل بنجاح!",
		Thanks:    "شكراً لتسجيلك في %s.",
		Presented: "يرجى العثور على رمز QR أدناه. قدمه عند مدخل الفعالية.",
	},
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<div dir="{{.Dir}}">
<h2>{{.Heading}}</h2>
<p>{{.Thanks}}</p>
<p>{{.Presented}}</p>
<img src="cid:{{.ImageID}}" alt="QR Code" />
</div>`))

var bulkTemplate = template.Must(template.New("bulk").Parse(`<div>{{range .}}<p>{{.}}</p>{{end}}</div>`))

// confirmationFor retourne le sujet et le corps HTML de l'email de confirmation
func confirmationFor(eventTitle, language string) (string, string, error) {
	content, ok := confirmationTranslations[language]
	if !ok {
		content = confirmationTranslations["en"]
	}

	var body bytes.Buffer
	err := confirmationTemplate.Execute(&body, map[string]string{
		"Dir":       content.Dir,
		"Heading":   content.Heading,
		"Thanks":    fmt.Sprintf(content.Thanks, eventTitle),
		"Presented": content.Presented,
		"ImageID":   qrAttachmentName,
	})
	if err != nil {
		return "", "", fmt.Errorf("erreur lors du rendu de l'email: %w", err)
	}

	return fmt.Sprintf(content.Subject, eventTitle), body.String(), nil
}

// SMTPMailer envoie les emails via SMTP
type SMTPMailer struct {
	cfg config.MailerConfig
}

// NewSMTPMailer crée un mailer à partir d'une configuration explicite
func NewSMTPMailer(cfg config.MailerConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Deliver envoie l'email de confirmation avec le QR code embarqué
func (m *SMTPMailer) Deliver(ctx context.Context, d Delivery) error {
	subject, body, err := confirmationFor(d.EventTitle, d.Language)
	if err != nil {
		return err
	}

	msg, err := m.newMessage(d.Email, subject, body)
	if err != nil {
		return err
	}
	msg.EmbedReader(qrAttachmentName, bytes.NewReader(d.QRImage))

	return m.send(ctx, msg)
}

// Send envoie un email libre ; chaque ligne du corps devient un paragraphe
func (m *SMTPMailer) Send(ctx context.Context, message Message) error {
	var body bytes.Buffer
	if err := bulkTemplate.Execute(&body, splitLines(message.Body)); err != nil {
		return fmt.Errorf("erreur lors du rendu de l'email: %w", err)
	}

	msg, err := m.newMessage(message.To, message.Subject, body.String())
	if err != nil {
		return err
	}

	return m.send(ctx, msg)
}

func (m *SMTPMailer) newMessage(to, subject, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("adresse d'expédition invalide: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("adresse de destination invalide: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

func (m *SMTPMailer) send(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("erreur de configuration SMTP: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("erreur lors de l'envoi de l'email: %w", err)
	}

	return nil
}

// DisabledMailer refuse tous les envois ; utilisé quand SMTP n'est pas configuré
type DisabledMailer struct{}

// NewDisabledMailer crée un mailer désactivé
func NewDisabledMailer() *DisabledMailer {
	log.Println("⚠️  SMTP non configuré - les QR codes ne seront pas envoyés par email")
	return &DisabledMailer{}
}

func (DisabledMailer) Deliver(ctx context.Context, d Delivery) error { return ErrMailerDisabled }

func (DisabledMailer) Send(ctx context.Context, m Message) error { return ErrMailerDisabled }

func splitLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if line := strings.TrimSpace(l); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

package contact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"strings"
	"text/template"

	"github.com/jordan-wright/email"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Form is the storefront contact form.
type Form struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Service relays contact form messages to the shop inbox.
type Service interface {
	Send(ctx context.Context, form Form) error
}

type relayMetrics interface {
	IncContactMessage(ok bool)
}

// Options names the envelope of relayed messages.
type Options struct {
	From  string
	To    string
	Brand string
}

type service struct {
	sender  Sender
	opts    Options
	metrics relayMetrics
	logg    *logger.Logger
}

var messageTemplate = template.Must(template.New("contact").Parse(`New message from the {{.Brand}} contact form

Name: {{.Name}}
Email: {{.Email}}
{{- if .Phone}}
Phone: {{.Phone}}
{{- end}}

{{.Message}}
`))

// NewService builds the contact service. sender may be nil; Send then reports that
// email is not configured. metrics may be nil.
func NewService(sender Sender, opts Options, metrics relayMetrics, logg *logger.Logger) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{sender: sender, opts: opts, metrics: metrics, logg: logg}, nil
}

func (s *service) Send(ctx context.Context, form Form) error {
	if s.sender == nil || s.opts.From == "" || s.opts.To == "" {
		return pkgerrors.New(pkgerrors.CodeNotConfigured, "email is not configured")
	}
	form = normalize(form)
	if form.Name == "" || form.Email == "" || form.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name, email and message are required")
	}

	msg, err := s.compose(form)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compose message")
	}
	ctx = s.logg.WithField(ctx, "reply_to", form.Email)
	err = s.sender.Send(ctx, msg)
	if s.metrics != nil {
		s.metrics.IncContactMessage(err == nil)
	}
	if err != nil {
		if isAuthFailure(err) {
			s.logg.Error(ctx, "contact.smtp_auth_rejected", err)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "email credentials were rejected")
		}
		s.logg.Error(ctx, "contact.send_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to send message")
	}
	s.logg.Info(ctx, "contact message relayed")
	return nil
}

func (s *service) compose(form Form) (*email.Email, error) {
	var body bytes.Buffer
	data := struct {
		Form
		Brand string
	}{Form: form, Brand: s.opts.Brand}
	if err := messageTemplate.Execute(&body, data); err != nil {
		return nil, err
	}

	msg := email.NewEmail()
	msg.From = s.opts.From
	msg.To = []string{s.opts.To}
	msg.ReplyTo = []string{form.Email}
	msg.Subject = fmt.Sprintf("Contact form: %s", form.Name)
	msg.Text = body.Bytes()
	return msg, nil
}

func normalize(form Form) Form {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Message = strings.TrimSpace(form.Message)
	return form
}

// isAuthFailure matches SMTP 535 replies and the client-side auth refusals of net/smtp.
func isAuthFailure(err error) bool {
	var proto *textproto.Error
	if errors.As(err, &proto) && proto.Code == 535 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "535") || strings.Contains(msg, "authentication")
}

package contact

import (
	"context"
	"errors"
	"io"
	"net/textproto"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type fakeSender struct {
	sent []*email.Email
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg *email.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var testOpts = Options{From: "shop@example.com", To: "owner@example.com", Brand: "Greenfield"}

func newService(t *testing.T, sender Sender, opts Options) Service {
	t.Helper()
	svc, err := NewService(sender, opts, nil, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func TestSendComposesPlainTextMessage(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(t, sender, testOpts)

	err := svc.Send(context.Background(), Form{Name: " Nimal ", Email: "nimal@example.com", Phone: "0771234567", Message: "Do you deliver to Peradeniya?"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "shop@example.com", msg.From)
	assert.Equal(t, []string{"owner@example.com"}, msg.To)
	assert.Equal(t, []string{"nimal@example.com"}, msg.ReplyTo)
	assert.Equal(t, "Contact form: Nimal", msg.Subject)
	assert.Equal(t, "New message from the Greenfield contact form\n\nName: Nimal\nEmail: nimal@example.com\nPhone: 0771234567\n\nDo you deliver to Peradeniya?\n", string(msg.Text))
}

func TestSendOmitsMissingPhone(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(t, sender, testOpts)

	require.NoError(t, svc.Send(context.Background(), Form{Name: "Kamala", Email: "k@example.com", Message: "Hello"}))
	assert.Equal(t, "New message from the Greenfield contact form\n\nName: Kamala\nEmail: k@example.com\n\nHello\n", string(sender.sent[0].Text))
}

func TestSendFailureMapping(t *testing.T) {
	form := Form{Name: "A", Email: "a@example.com", Message: "hi"}
	ctx := context.Background()

	err := newService(t, nil, testOpts).Send(ctx, form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured))
	assert.Equal(t, "email is not configured", pkgerrors.As(err).Message())

	err = newService(t, &fakeSender{}, Options{Brand: "x"}).Send(ctx, form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured))

	err = newService(t, &fakeSender{err: &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"}}, testOpts).Send(ctx, form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, "email credentials were rejected", pkgerrors.As(err).Message())

	err = newService(t, &fakeSender{err: errors.New("dial tcp: connection refused")}, testOpts).Send(ctx, form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, "failed to send message", pkgerrors.As(err).Message())

	err = newService(t, &fakeSender{}, testOpts).Send(ctx, Form{Name: "A", Email: "a@example.com", Message: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewSMTPSenderRequiresFullConfig(t *testing.T) {
	assert.Nil(t, NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587}))
	assert.NotNil(t, NewSMTPSender(config.SMTPConfig{
		Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "f@example.com", To: "t@example.com",
	}))
}

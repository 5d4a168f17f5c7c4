// Package mailer implementa el Notification Dispatcher sobre SMTP (gomail).
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/pkg/config"
)

var _ billing.Notifier = (*Dispatcher)(nil)

// Sender entrega mensajes ya construidos. *gomail.Dialer lo implementa.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Dispatcher renderiza y envía notificaciones. Nunca devuelve error ni propaga pánicos:
// todo fallo se expresa en DispatchResult.
type Dispatcher struct {
	sender   Sender
	from     string
	fromName string
	log      zerolog.Logger
}

// New construye el dispatcher con un dialer SMTP (TLS 1.2+).
func New(cfg config.MailerConfig, fromName string, log zerolog.Logger) *Dispatcher {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	return NewWithSender(dialer, cfg.From, fromName, log)
}

// NewWithSender permite inyectar el transporte (tests).
func NewWithSender(sender Sender, from, fromName string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, from: from, fromName: fromName, log: log}
}

// Send valida, renderiza y entrega la notificación respetando el deadline de ctx.
func (d *Dispatcher) Send(ctx context.Context, n entity.Notification) (res entity.DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("type", string(n.Type)).Msg("pánico en el dispatcher")
			res = entity.DispatchResult{Success: false, Error: fmt.Sprintf("error interno: %v", r)}
		}
	}()

	msg, err := d.build(n)
	if err != nil {
		return entity.DispatchResult{Success: false, Error: err.Error()}
	}
	id := uuid.New().String()
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@zzp-facturatie>", id))

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("error interno: %v", r)
			}
		}()
		done <- d.sender.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return entity.DispatchResult{Success: false, Error: fmt.Sprintf("envío cancelado: %v", ctx.Err())}
	case err := <-done:
		if err != nil {
			d.log.Error().Err(err).Str("type", string(n.Type)).Str("recipient", n.RecipientEmail).Msg("envío SMTP fallido")
			return entity.DispatchResult{Success: false, Error: fmt.Sprintf("failed to send email: %v", err)}
		}
	}
	d.log.Info().Str("type", string(n.Type)).Str("message_id", id).Msg("notificación enviada")
	return entity.DispatchResult{Success: true, ID: id}
}

func (d *Dispatcher) build(n entity.Notification) (*gomail.Message, error) {
	tpl, ok := templates[n.Type]
	if !ok {
		return nil, fmt.Errorf("tipo de notificación desconocido %q", n.Type)
	}
	if strings.TrimSpace(n.RecipientEmail) == "" {
		return nil, fmt.Errorf("recipient_email requerido")
	}
	if missing := missingFields(n.Data, tpl.required); len(missing) > 0 {
		return nil, fmt.Errorf("faltan campos en data: %s", strings.Join(missing, ", "))
	}
	if v, ok := n.Data["totalCents"]; ok {
		if _, valid := centsOf(v); !valid {
			return nil, fmt.Errorf("totalCents debe ser un entero en céntimos")
		}
	}

	view := struct {
		Name string
		Data map[string]any
	}{Name: n.RecipientName, Data: n.Data}
	if view.Name == "" {
		view.Name = n.RecipientEmail
	}
	subject, err := render(tpl.subject, view)
	if err != nil {
		return nil, err
	}
	body, err := render(tpl.body, view)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	msg.SetAddressHeader("From", d.from, d.fromName)
	msg.SetAddressHeader("To", n.RecipientEmail, n.RecipientName)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return msg, nil
}

type executor interface {
	Execute(w io.Writer, data any) error
	Name() string
}

func render(t executor, view any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func missingFields(data map[string]any, required []string) []string {
	var missing []string
	for _, k := range required {
		v, ok := data[k]
		if !ok || v == nil {
			missing = append(missing, k)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

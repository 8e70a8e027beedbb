// Package mail implements the outbound email collaborator.  Templates
// are external HTML artifacts under the mails/ directory, keyed by
// name; callers never deal with SMTP details.  Every call site in the
// platform treats mail as best-effort: failures are reported to the
// caller, logged, and never roll back the triggering operation.
package mail

import (
    "bytes"
    "fmt"
    "html/template"
    "log"
    "path/filepath"

    gomail "gopkg.in/gomail.v2"

    "github.com/iliyamo/learning-platform/internal/config"
)

// Mailer is the interface handlers depend on.
type Mailer interface {
    Send(to, subject, templateName string, data any) error
}

// SMTPMailer renders a named template and delivers it over SMTP.
type SMTPMailer struct {
    host     string
    port     int
    user     string
    password string
    from     string
    dir      string // template directory
}

// New builds a mailer from config.  When no SMTP host is configured
// (local development) it returns a logging mailer that renders the
// template to verify it but delivers nothing.
func New(cfg config.Config) Mailer {
    if cfg.SMTPHost == "" {
        log.Printf("mail: SMTP_HOST unset, outgoing mail will be logged only")
        return &logMailer{dir: "mails"}
    }
    return &SMTPMailer{
        host:     cfg.SMTPHost,
        port:     cfg.SMTPPort,
        user:     cfg.SMTPUser,
        password: cfg.SMTPPassword,
        from:     cfg.SMTPFrom,
        dir:      "mails",
    }
}

// Send renders mails/<templateName>.html with data and mails it.
func (m *SMTPMailer) Send(to, subject, templateName string, data any) error {
    body, err := render(m.dir, templateName, data)
    if err != nil {
        return err
    }
    msg := gomail.NewMessage()
    msg.SetHeader("From", m.from)
    msg.SetHeader("To", to)
    msg.SetHeader("Subject", subject)
    msg.SetBody("text/html", body)

    d := gomail.NewDialer(m.host, m.port, m.user, m.password)
    if err := d.DialAndSend(msg); err != nil {
        return fmt.Errorf("send mail to %s: %w", to, err)
    }
    return nil
}

// logMailer renders templates but only logs the delivery.
type logMailer struct{ dir string }

func (m *logMailer) Send(to, subject, templateName string, data any) error {
    if _, err := render(m.dir, templateName, data); err != nil {
        return err
    }
    log.Printf("mail: would send %q (%s) to %s", subject, templateName, to)
    return nil
}

func render(dir, name string, data any) (string, error) {
    t, err := template.ParseFiles(filepath.Join(dir, name+".html"))
    if err != nil {
        return "", fmt.Errorf("parse template %s: %w", name, err)
    }
    var buf bytes.Buffer
    if err := t.Execute(&buf, data); err != nil {
        return "", fmt.Errorf("render template %s: %w", name, err)
    }
    return buf.String(), nil
}

package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender writes each message to dir as <stamp>_<tag>.html plus a .json
// file with the envelope and text body.
type DevSender struct {
	dir string
	now func() time.Time
}

func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

type devEnvelope struct {
	SendEmailParams
	SentAt time.Time `json:"sent_at"`
}

func (d *DevSender) SendEmail(_ context.Context, p SendEmailParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	now := d.now()
	label := p.Tag
	if label == "" {
		label = p.Subject
	}
	base := filepath.Join(d.dir, now.Format("2006_01_02_150405.000000")+"_"+fileLabel(label))

	meta, err := json.MarshalIndent(devEnvelope{SendEmailParams: p, SentAt: now.UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(base+".html", []byte(p.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(base+".json", meta, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9_.-]`)

func fileLabel(s string) string {
	s = unsafeFileChars.ReplaceAllString(strings.ReplaceAll(strings.ToLower(s), " ", "_"), "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		return "email"
	}
	return s
}

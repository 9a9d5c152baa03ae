package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/signintech/gopdf"

	"cancer-diagnosis/internal/diagnosis"
)

// ErrWrite means the document could not be stored; no partial file is left behind.
var ErrWrite = errors.New("report write failed")

type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

type Service struct {
	dir          string
	fontPath     string
	tgClient     TelegramClient
	doctorChatID int64
	now          func() time.Time
	render       func(w io.Writer, d diagnosis.Diagnosis) error
	deliveries   sync.WaitGroup
}

// NewService stores transient reports under dir. tg may be nil, in which case
// reports are only offered for download.
func NewService(dir, fontPath string, tg TelegramClient, doctorChatID int64) *Service {
	if dir == "" {
		dir = os.TempDir()
	}
	s := &Service{
		dir:          dir,
		fontPath:     fontPath,
		tgClient:     tg,
		doctorChatID: doctorChatID,
		now:          time.Now,
	}
	s.render = s.Render
	return s
}

// FileName is the download name: report_<Cancer_Type>.pdf.
func FileName(ct diagnosis.CancerType) string {
	return fmt.Sprintf("report_%s.pdf", ct.Slug())
}

// Line is one row of the rendered document.
type Line struct {
	Text        string
	Size        float64
	Centered    bool
	SpaceBefore float64
}

// Layout lists the document rows: title, one "name: value" row per input in
// request order, then result, probability and severity.
func Layout(d diagnosis.Diagnosis, generatedAt time.Time) []Line {
	lines := []Line{
		{Text: fmt.Sprintf("%s Diagnosis Report", d.CancerType), Size: 16, Centered: true},
		{Text: fmt.Sprintf("Date: %s", generatedAt.Format("02.01.2006 15:04")), Size: 10, Centered: true, SpaceBefore: 4},
	}
	for i, f := range d.Request.Fields() {
		l := Line{Text: fmt.Sprintf("%s: %s", f.Name, f.Value), Size: 12}
		if i == 0 {
			l.SpaceBefore = 10
		}
		lines = append(lines, l)
	}
	lines = append(lines,
		Line{Text: fmt.Sprintf("Diagnosis Result: %s", d.Label), Size: 12, SpaceBefore: 5},
		Line{Text: fmt.Sprintf("Probability: %.2f", d.Probability), Size: 12},
		Line{Text: fmt.Sprintf("Seriousness Level: %s", d.Severity), Size: 12},
	)
	return lines
}

const (
	fontName     = "DejaVu"
	margin       = 40.0
	lineSpacing  = 1.4
	bottomMargin = 50.0
)

// Common locations of DejaVuSans on Debian and Alpine images.
var fallbackFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

func (s *Service) fontCandidates() []string {
	if s.fontPath == "" {
		return fallbackFontPaths
	}
	return append([]string{s.fontPath}, fallbackFontPaths...)
}

// FontAvailable reports whether any configured or fallback font can be read.
func (s *Service) FontAvailable() bool {
	for _, p := range s.fontCandidates() {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var fontErr error
	for _, path := range s.fontCandidates() {
		if err := pdf.AddTTFFont(fontName, path); err == nil {
			return nil
		} else {
			fontErr = err
		}
	}
	return fmt.Errorf("failed to load font for PDF, set REPORT_FONT_PATH or install ttf-dejavu. Last error: %w", fontErr)
}

// Render draws the document as a paginated A4 PDF.
func (s *Service) Render(w io.Writer, d diagnosis.Diagnosis) error {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	pdf.SetY(margin)

	if err := s.loadFont(&pdf); err != nil {
		return err
	}

	pageHeight := gopdf.PageSizeA4.H
	width := gopdf.PageSizeA4.W - 2*margin

	for _, l := range Layout(d, s.now()) {
		if err := pdf.SetFont(fontName, "", l.Size); err != nil {
			return err
		}
		height := l.Size * lineSpacing
		if l.SpaceBefore > 0 {
			pdf.Br(l.SpaceBefore)
		}

		rows := []string{l.Text}
		if !l.Centered {
			split, err := pdf.SplitText(l.Text, width)
			if err == nil && len(split) > 0 {
				rows = split
			}
		}
		for _, row := range rows {
			if pdf.GetY()+height > pageHeight-bottomMargin {
				pdf.AddPage()
				pdf.SetY(margin)
			}
			pdf.SetX(margin)
			opt := gopdf.CellOption{Align: gopdf.Left | gopdf.Middle}
			if l.Centered {
				opt.Align = gopdf.Center | gopdf.Middle
			}
			if err := pdf.CellWithOption(&gopdf.Rect{W: width, H: height}, row, opt); err != nil {
				return err
			}
			pdf.Br(height)
		}
	}

	if _, err := pdf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// Generate writes the document to <dir>/<diagnosis id>/report_<Cancer_Type>.pdf.
// The caller must call release once the file has been served.
func (s *Service) Generate(ctx context.Context, d diagnosis.Diagnosis) (path string, release func(), err error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	slog.InfoContext(ctx, "generating PDF report", "diagnosis_id", d.ID.String(), "cancer_type", string(d.CancerType))

	var buf bytes.Buffer
	if err := s.render(&buf, d); err != nil {
		return "", nil, err
	}

	dir := filepath.Join(s.dir, d.ID.String())
	release = func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Error("failed to remove report", "path", dir, "error", err)
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	path = filepath.Join(dir, FileName(d.CancerType))
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		release()
		return "", nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return path, release, nil
}

// WithReport generates the document, hands it to fn, and removes it when fn
// returns, whatever the outcome. When a doctor chat is configured a copy of the
// document is sent there in the background.
func (s *Service) WithReport(ctx context.Context, d diagnosis.Diagnosis, fn func(name string, r io.Reader) error) error {
	path, release, err := s.Generate(ctx, d)
	if err != nil {
		return err
	}
	defer release()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := fn(filepath.Base(path), bytes.NewReader(data)); err != nil {
		return err
	}

	if s.tgClient != nil && s.doctorChatID != 0 {
		s.deliveries.Add(1)
		go func(ctx context.Context, d diagnosis.Diagnosis, data []byte, name string) {
			defer s.deliveries.Done()
			s.sendToDoctor(ctx, d, data, name)
		}(context.WithoutCancel(ctx), d, data, filepath.Base(path))
	}
	return nil
}

// Wait blocks until reports queued for the doctor chat have been delivered.
func (s *Service) Wait() {
	s.deliveries.Wait()
}

func (s *Service) sendToDoctor(ctx context.Context, d diagnosis.Diagnosis, data []byte, name string) {
	summary := fmt.Sprintf("%s: %s, probability %.2f, seriousness %s", d.CancerType, d.Label, d.Probability, d.Severity)
	if err := s.tgClient.SendMessage(s.doctorChatID, summary); err != nil {
		slog.ErrorContext(ctx, "error sending report summary", "diagnosis_id", d.ID.String(), "error", err)
	}
	if err := s.tgClient.SendDocument(s.doctorChatID, data, name); err != nil {
		slog.ErrorContext(ctx, "error sending report to doctor chat", "diagnosis_id", d.ID.String(), "error", err)
		return
	}
	slog.InfoContext(ctx, "report sent to doctor chat", "diagnosis_id", d.ID.String())
}

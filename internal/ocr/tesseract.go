package ocr

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	TesseractLang string // default "eng"
	TessdataDir   string

	DPI      int // rasterization DPI for scanned PDFs, default 300
	MaxPages int // 0 = no limit

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// TesseractEngine shells out to tesseract for image recognition.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg Config, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &TesseractEngine{cfg: cfg, runner: newExecRunner(logger), logger: logger}
}

// Recognize writes data to a temp file and runs tesseract over it.
// Any failure degrades to empty text; recognition is best-effort.
func (e *TesseractEngine) Recognize(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "rfq-ocr-*")
	if err != nil {
		e.logger.Warn("ocr.tempdir_failed", "error", err)
		return "", nil
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.tempdir_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == ".bin" {
		ext = ".png"
	}
	if len(data) > 4 && string(data[:4]) == "%PDF" {
		ext = ".pdf"
	}
	in := filepath.Join(tmpDir, "input"+ext)
	if err := os.WriteFile(in, data, 0o600); err != nil {
		e.logger.Warn("ocr.tempfile_failed", "error", err)
		return "", nil
	}

	var txt string
	if ext == ".pdf" {
		txt = e.recognizePDF(ctx, tmpDir, in, filename)
	} else {
		txt = e.recognizeImage(ctx, in, filename)
	}
	txt = Normalize(txt)
	e.logger.Info("ocr.recognize.ok",
		"file", filename,
		"bytes_in", len(data),
		"chars_out", len(txt),
		"confidence", HeuristicConfidence(txt),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return txt, nil
}

// recognizeImage runs tesseract over one image file.
func (e *TesseractEngine) recognizeImage(ctx context.Context, path, filename string) string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		e.logger.Warn("ocr.tesseract_failed",
			"file", filename,
			"error", err,
			"stderr", truncate(string(errb), 2<<10),
		)
		return ""
	}
	return string(out)
}

// recognizePDF rasterizes the PDF with pdftoppm and OCRs each page image.
func (e *TesseractEngine) recognizePDF(ctx context.Context, tmpDir, path, filename string) string {
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		e.logger.Warn("ocr.pdftoppm_failed",
			"file", filename,
			"error", err,
			"stderr", truncate(string(errb), 2<<10),
		)
		return ""
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		e.logger.Warn("ocr.pdftoppm_no_pages", "file", filename)
		return ""
	}

	var b strings.Builder
	for _, img := range matches {
		txt := e.recognizeImage(ctx, img, filename)
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String()
}

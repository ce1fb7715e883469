package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"paperledger/pkg/config"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractOCR extracts text from uploaded documents. PDFs go through
// go-fitz text extraction, images through Tesseract after grayscale and
// upscale preprocessing.
type TesseractOCR struct {
	cfg    config.OCRConfig
	logger *zap.Logger
}

func NewTesseractOCR(cfg config.OCRConfig, logger *zap.Logger) *TesseractOCR {
	return &TesseractOCR{
		cfg:    cfg,
		logger: logger,
	}
}

func (o *TesseractOCR) Available() bool {
	return o.cfg.Enabled
}

func (o *TesseractOCR) Engines() []string {
	if !o.cfg.Enabled {
		return nil
	}
	return []string{"tesseract", "go-fitz"}
}

// Extract pulls raw text out of the document and runs the field heuristics
// over it. The structured fields are best effort: missing ones come back
// nil, only a text extraction failure is an error.
func (o *TesseractOCR) Extract(ctx context.Context, data []byte, fileName string) (*OCRFields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))

	var text string
	var err error
	if ext == ".pdf" {
		text, err = o.extractFromPDF(data)
	} else {
		text, err = o.extractFromImage(data, ext)
	}
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text extracted from document")
	}

	fields := &OCRFields{
		RawText:  text,
		Amount:   parseAmount(text),
		DocDate:  parseDocDate(text),
		Provider: parseProvider(text),
	}

	o.logger.Info("OCR extraction finished",
		zap.String("file", fileName),
		zap.Int("text_length", len(text)),
		zap.Bool("amount_found", fields.Amount != nil),
		zap.Bool("date_found", fields.DocDate != nil),
	)
	return fields, nil
}

func (o *TesseractOCR) extractFromPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var builder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			o.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1), zap.Error(err))
			continue
		}
		if pageText != "" {
			builder.WriteString(pageText)
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

// extractFromImage writes the bytes to a temp file, normalizes the image
// for Tesseract (grayscale, upscale small scans) and runs recognition.
func (o *TesseractOCR) extractFromImage(data []byte, ext string) (string, error) {
	tmpFile, err := os.CreateTemp("", "ocr-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	ocrPath := tmpPath
	if prepared, err := o.preprocess(tmpPath); err == nil {
		ocrPath = prepared
		defer os.Remove(prepared)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if len(o.cfg.Languages) > 0 {
		if err := client.SetLanguage(o.cfg.Languages...); err != nil {
			return "", fmt.Errorf("failed to set OCR language: %w", err)
		}
	}
	if err := client.SetImage(ocrPath); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, nil
}

func (o *TesseractOCR) preprocess(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < 800 {
		gray = imaging.Resize(gray, 0, 1200, imaging.Lanczos)
	}

	tmpFile, err := os.CreateTemp("", "ocr-prep-*.png")
	if err != nil {
		return "", err
	}
	tmpFile.Close()

	if err := imaging.Save(gray, tmpFile.Name()); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	return tmpFile.Name(), nil
}

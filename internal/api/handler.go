// Package api exposes the converter over HTTP for the statement-upload UI.
package api

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/parser"
	"github.com/insightdelivered/varo-monarch-converter/internal/writer"
)

const version = "1.0.0"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool                           `json:"success"`
	Error        string                         `json:"error,omitempty"`
	Transactions []models.ClassifiedTransaction `json:"transactions"`
	CSV          string                         `json:"csv,omitempty"`
	Summary      *SummaryInfo                   `json:"summary,omitempty"`
	Warnings     []string                       `json:"warnings,omitempty"`
	Count        int                            `json:"count"`
	RawText      string                         `json:"rawText,omitempty"`
	Version      string                         `json:"version,omitempty"`
}

// SummaryInfo carries statement-level metadata for the JSON response.
type SummaryInfo struct {
	AccountNumber    string `json:"accountNumber,omitempty"`
	EndingBalance    string `json:"endingBalance,omitempty"`
	CreditLimit      string `json:"creditLimit,omitempty"`
	NewBalance       string `json:"newBalance,omitempty"`
	PaymentDueAmount string `json:"paymentDueAmount,omitempty"`
	PaymentDueDate   string `json:"paymentDueDate,omitempty"`
}

// NewApp builds the fiber application with routes registered.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 << 20,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/api/health", HandleHealth)
	app.Post("/api/convert", HandleConvert)
	return app
}

// HandleHealth reports service liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

// HandleConvert accepts a Varo Believe statement PDF in the "file" form
// field and returns the classified transactions plus Monarch CSV. A client
// that already ran text extraction can send the text in "extractedText" and
// skip the server-side PDF pass.
func HandleConvert(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	includeSource := c.FormValue("sourceColumn") == "true"

	var doc *extractor.Document
	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		doc = extractor.FromText(text)
	} else {
		file, err := header.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "Failed to read uploaded file.")
		}
		defer file.Close()

		tmp, err := os.CreateTemp("", "statement-*.pdf")
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "Failed to create temp file.")
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, file); err != nil {
			tmp.Close()
			return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
		}
		tmp.Close()

		doc, err = extractor.Open(tmp.Name())
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
		}
	}

	txs, warnings := parser.ExtractTransactions(doc, header.Filename)
	summary := parser.ExtractSummary(doc, header.Filename)

	csv, err := writer.String(txs, writer.Options{IncludeSourceFile: includeSource})
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	if txs == nil {
		txs = []models.ClassifiedTransaction{}
	}

	resp := ConvertResponse{
		Success:      true,
		Transactions: txs,
		CSV:          csv,
		Count:        len(txs),
		Version:      version,
	}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	if info := summaryInfo(summary); info != nil {
		resp.Summary = info
	}
	// Raw extracted text helps diagnose parsing problems on new statement
	// layouts; only sent when asked for.
	if c.FormValue("debug") == "true" {
		resp.RawText = doc.PlainText()
	}
	return c.JSON(resp)
}

func summaryInfo(s models.StatementSummary) *SummaryInfo {
	info := &SummaryInfo{
		AccountNumber:  s.AccountNumber,
		PaymentDueDate: s.PaymentDueDate,
	}
	if s.HasEndingBalance {
		info.EndingBalance = s.EndingBalance.StringFixed(2)
	}
	if s.HasCreditLimit {
		info.CreditLimit = s.CreditLimit.StringFixed(2)
	}
	if s.HasNewBalance {
		info.NewBalance = s.NewBalance.StringFixed(2)
	}
	if s.HasPaymentDueAmount {
		info.PaymentDueAmount = s.PaymentDueAmount.StringFixed(2)
	}
	if *info == (SummaryInfo{}) {
		return nil
	}
	return info
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
	})
}

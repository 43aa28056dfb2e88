package processor

import (
	"context"
	"fmt"

	"github.com/dvloznov/sales-tracker/internal/config"
	"github.com/dvloznov/sales-tracker/internal/extract"
	"github.com/dvloznov/sales-tracker/internal/gmailsource"
	"github.com/dvloznov/sales-tracker/internal/ledger"
	"github.com/dvloznov/sales-tracker/internal/logger"
)

// recordMessage extracts a sale record and appends it as one row. Partial
// extractions still append; only a parse fault drops the message.
func (p *Processor) recordMessage(ctx context.Context, msg *gmailsource.Message, recordLedger *ledger.RecordLedger) error {
	log := logger.FromContext(ctx)

	rec, warnings, err := extract.Extract(msg.PlainBody, msg.Subject, msg.Date)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	rec.SourceMessageID = msg.ID

	if len(warnings) > 0 {
		log.Warn().
			Str("message_id", msg.ID).
			Strs("missing_fields", warnings).
			Msg("Partial extraction, appending anyway")
	}

	if err := p.table.AppendRow(ctx, p.cfg.Sheets.SalesSheet, rec.Row()); err != nil {
		return err
	}
	recordLedger.Mark(msg.ID)

	log.Info().
		Str("message_id", msg.ID).
		Str("cert_number", rec.CertNumber).
		Str("title", rec.ItemTitle).
		Msg("Appended sale row")
	return nil
}

// renderMessage renders the snapshot, converts it to its final format, and
// writes it to the file store. The ledger is marked only after the write
// succeeds so a failed write is retried on a future run.
func (p *Processor) renderMessage(ctx context.Context, msg *gmailsource.Message, folderID string, renderLedger *ledger.RenderLedger) error {
	log := logger.FromContext(ctx)

	doc, resolutions, err := p.renderer.Render(msg)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	unresolved := 0
	for _, res := range resolutions {
		if !res.Resolved {
			unresolved++
		}
	}
	if unresolved > 0 {
		log.Warn().
			Str("message_id", msg.ID).
			Int("unresolved_images", unresolved).
			Msg("Some image references left unresolved")
	}

	data := doc.HTML
	mimeType := "text/html"
	ext := "html"
	if p.converter != nil && p.cfg.Render.Format == config.FormatPDF {
		data, err = p.converter.Convert(ctx, doc.HTML)
		if err != nil {
			return fmt.Errorf("convert: %w", err)
		}
		mimeType = "application/pdf"
		ext = "pdf"
	}

	name := doc.BaseName + "." + ext
	if _, err := p.files.WriteFile(ctx, folderID, name, mimeType, data); err != nil {
		return err
	}
	renderLedger.Add(msg.ID)

	log.Info().
		Str("message_id", msg.ID).
		Str("filename", name).
		Msg("Wrote rendered snapshot")
	return nil
}

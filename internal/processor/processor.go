// Package processor orchestrates one run: paginate the labeled message
// source, decide per message which of the two actions (record a sale row,
// render a snapshot) are still owed, perform them in isolation, and persist
// the render ledger once at the end.
package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dvloznov/sales-tracker/internal/config"
	"github.com/dvloznov/sales-tracker/internal/ledger"
	"github.com/dvloznov/sales-tracker/internal/logger"
)

// Summary is the operator-facing result of one run.
type Summary struct {
	RunID        string
	Scanned      int
	Skipped      int
	Recorded     int
	Rendered     int
	RecordErrors int
	RenderErrors int
}

func (s *Summary) String() string {
	return fmt.Sprintf("run %s: scanned=%d skipped=%d recorded=%d rendered=%d record_errors=%d render_errors=%d",
		s.RunID, s.Scanned, s.Skipped, s.Recorded, s.Rendered, s.RecordErrors, s.RenderErrors)
}

// Processor wires the collaborators for one deployment.
type Processor struct {
	cfg       *config.Config
	source    Source
	table     Table
	files     Files
	renderer  Renderer
	converter Converter
}

// New creates a Processor. converter may be nil to keep snapshots as HTML.
func New(cfg *config.Config, source Source, table Table, files Files, renderer Renderer, converter Converter) *Processor {
	return &Processor{
		cfg:       cfg,
		source:    source,
		table:     table,
		files:     files,
		renderer:  renderer,
		converter: converter,
	}
}

// Run performs both actions per message.
func (p *Processor) Run(ctx context.Context) (*Summary, error) {
	return p.run(ctx, true, true)
}

// RunRecords performs only the record action.
func (p *Processor) RunRecords(ctx context.Context) (*Summary, error) {
	return p.run(ctx, true, false)
}

// RunRenders performs only the render action.
func (p *Processor) RunRenders(ctx context.Context) (*Summary, error) {
	return p.run(ctx, false, true)
}

func (p *Processor) run(ctx context.Context, doRecord, doRender bool) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := logger.ForRun(logger.FromContext(ctx), summary.RunID)
	ctx = logger.WithContext(ctx, log)

	// Configuration faults: everything below aborts before any message
	// is touched.
	labelID, err := p.source.ResolveLabel(ctx, p.cfg.Gmail.Label)
	if err != nil {
		return nil, err
	}

	var recordLedger *ledger.RecordLedger
	if doRecord {
		recordLedger, err = ledger.LoadRecordLedger(ctx, p.table, p.cfg.Sheets.SalesSheet)
		if err != nil {
			return nil, err
		}
	}

	var renderLedger *ledger.RenderLedger
	var folderID string
	if doRender {
		renderLedger, err = ledger.LoadRenderLedger(ctx, p.table, p.cfg.Sheets.LedgerSheet)
		if err != nil {
			return nil, err
		}
		folderID, err = p.files.EnsureFolderPath(ctx, p.cfg.Drive.FolderPath)
		if err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("label", p.cfg.Gmail.Label).
		Bool("record", doRecord).
		Bool("render", doRender).
		Msg("Starting run")

	acted := 0
	pageToken := ""
	var pageErr error

scan:
	for {
		msgs, nextToken, err := p.source.ListPage(ctx, labelID, pageToken, p.cfg.Run.PageSize)
		if err != nil {
			// The render ledger still holds successful writes from
			// earlier pages; fall through so they are persisted.
			pageErr = err
			log.Error().Err(err).Msg("Page fetch failed, ending scan")
			break
		}

		for _, msg := range msgs {
			summary.Scanned++

			needRecord := doRecord && !recordLedger.Contains(msg.ID)
			needRender := doRender && !renderLedger.Contains(msg.ID)
			if !needRecord && !needRender {
				summary.Skipped++
				continue
			}

			// Single combined cap: a message counts once however many
			// actions it needed.
			if p.cfg.Run.MaxPerRun > 0 && acted >= p.cfg.Run.MaxPerRun {
				log.Info().Int("cap", p.cfg.Run.MaxPerRun).Msg("Per-run cap reached, stopping scan")
				break scan
			}
			acted++

			if needRecord {
				if err := p.recordMessage(ctx, msg, recordLedger); err != nil {
					summary.RecordErrors++
					log.Warn().Err(err).Str("message_id", msg.ID).Msg("Record action failed")
				} else {
					summary.Recorded++
				}
			}

			if needRender {
				if err := p.renderMessage(ctx, msg, folderID, renderLedger); err != nil {
					summary.RenderErrors++
					log.Warn().Err(err).Str("message_id", msg.ID).Msg("Render action failed")
				} else {
					summary.Rendered++
				}
			}
		}

		if int64(len(msgs)) < p.cfg.Run.PageSize || nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	// Persisted unconditionally, even with zero new renders, so the
	// ledger sheet and its header always exist in normalized form.
	if doRender {
		if err := renderLedger.Save(ctx); err != nil {
			return summary, err
		}
	}

	log.Info().
		Int("scanned", summary.Scanned).
		Int("skipped", summary.Skipped).
		Int("recorded", summary.Recorded).
		Int("rendered", summary.Rendered).
		Int("record_errors", summary.RecordErrors).
		Int("render_errors", summary.RenderErrors).
		Msg("Run completed")

	if pageErr != nil {
		return summary, fmt.Errorf("processor: page fetch: %w", pageErr)
	}
	return summary, nil
}

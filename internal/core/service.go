package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/entityexport/internal/archive"
	"github.com/JonMunkholm/entityexport/internal/config"
	"github.com/JonMunkholm/entityexport/internal/export"
	"github.com/JonMunkholm/entityexport/internal/history"
	"github.com/JonMunkholm/entityexport/internal/logging"
	"github.com/JonMunkholm/entityexport/internal/metrics"
	"github.com/JonMunkholm/entityexport/internal/producer"
	"github.com/JonMunkholm/entityexport/internal/workspace"
	"github.com/JonMunkholm/entityexport/internal/worksheet"
)

// archiveDateLayout is the MM-DD-YYYY stamp in archive names.
const archiveDateLayout = "01-02-2006"

// historyTimeout bounds the history insert after a run.
const historyTimeout = 5 * time.Second

// HistoryStore persists finished runs. *history.Store implements it.
type HistoryStore interface {
	Record(ctx context.Context, run history.Run) error
	Recent(ctx context.Context, limit int) ([]history.Run, error)
}

// Service runs conversions.
type Service struct {
	cfg         *config.Config
	transformer *producer.Transformer
	workspaces  *workspace.Provider
	limiter     *ConversionLimiter
	history     HistoryStore
	now         func() time.Time

	// prepared runs on each new workspace before the passes write to it.
	prepared func(*workspace.Workspace)
}

// Option configures a Service.
type Option func(*Service)

// WithHistory records every run in h.
func WithHistory(h HistoryStore) Option {
	return func(s *Service) { s.history = h }
}

// WithClock replaces the wall clock used for expiry checks and archive names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithProfile replaces the mapping profile loaded from configuration.
func WithProfile(p producer.Profile) Option {
	return func(s *Service) { s.transformer = producer.NewTransformer(p) }
}

// NewService creates a Service from cfg. The mapping profile is read from
// cfg.Convert.ProfilePath when set.
func NewService(cfg *config.Config, opts ...Option) (*Service, error) {
	profile, err := producer.LoadProfile(cfg.Convert.ProfilePath)
	if err != nil {
		return nil, err
	}

	workspaces, err := workspace.NewProvider(cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:         cfg,
		transformer: producer.NewTransformer(profile),
		workspaces:  workspaces,
		limiter:     NewConversionLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.transformer = s.transformer.WithClock(s.now)

	return s, nil
}

// Convert reads the requested sheet, runs the Individual and Firm passes,
// writes one JSON file per record and zips each pass into its own archive.
//
// The run owns a fresh workspace. On success the archives stay in it for
// download; on failure the workspace is removed. Per-record write failures
// do not fail the run and are reported in EntityResult.Skipped.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}

	ws, err := s.workspaces.Acquire()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	if s.prepared != nil {
		s.prepared(ws)
	}
	ctx = logging.ContextWithRunID(ctx, ws.ID)
	logger := logging.WithFields(ctx, "file", req.FileName)

	started := s.now()
	result := &ConvertResult{
		RunID:      ws.ID,
		FileName:   req.FileName,
		SheetName:  req.SheetName,
		FolderName: ws.Dir,
		StartedAt:  started,
	}

	logger.Info("conversion started",
		"sheet", req.SheetName,
		"bytes", len(req.Data),
		"client_ip", ClientIPFromContext(ctx),
	)

	runErr := s.run(ctx, logger, ws, req, result)
	result.FinishedAt = s.now()

	if releaseErr := ws.Release(runErr == nil); releaseErr != nil {
		logger.Warn("workspace cleanup failed", "error", releaseErr)
	}

	s.finish(ctx, logger, result, runErr)
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, ws *workspace.Workspace, req ConvertRequest, result *ConvertResult) error {
	sheet, err := s.readSheet(req)
	if err != nil {
		return err
	}
	result.SheetName = sheet.Name
	logger.Debug("sheet read", "sheet", sheet.Name, "rows", len(sheet.Rows), "columns", len(sheet.Headers))

	stamp := s.now().Format(archiveDateLayout)
	writer := export.NewWriter(logger)

	for _, entity := range producer.EntityTypes {
		if err := ctx.Err(); err != nil {
			return err
		}

		er, err := s.runPass(logger, writer, ws, sheet.Rows, entity, stamp)
		if err != nil {
			return err
		}
		result.Entities = append(result.Entities, *er)
	}
	return nil
}

func (s *Service) readSheet(req ConvertRequest) (*worksheet.Sheet, error) {
	if strings.TrimSpace(req.SheetName) == "" {
		return worksheet.ReadIndex(req.Data, s.cfg.Convert.DefaultSheetIndex)
	}
	return worksheet.Read(req.Data, req.SheetName)
}

// runPass transforms rows for one entity, writes the record files into
// output<Plural>_<date>/ and packs them into output<Plural>_<date>.zip.
func (s *Service) runPass(logger *slog.Logger, writer *export.Writer, ws *workspace.Workspace, rows []worksheet.Row, entity producer.EntityType, stamp string) (*EntityResult, error) {
	passLogger := logger.With("entity", string(entity))

	batch, err := s.transformer.Transform(rows, entity)
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", entity, err)
	}
	metrics.RecordRejections(string(entity), batch.Mismatched, batch.Duplicates, batch.Expired)

	stem := "output" + entity.Plural() + "_" + stamp
	written, err := export.Write(writer, batch.Records, s.cfg.Convert.NamingKey, ws.Path(stem))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspace, err)
	}

	packed, err := archive.PackDir(written.Dir, ws.Path(stem+".zip"))
	if err != nil {
		return nil, err
	}
	metrics.RecordExport(string(entity), written.Written(), written.Skipped)

	passLogger.Info("entity pass completed",
		"records", batch.Count,
		"written", written.Written(),
		"skipped", written.Skipped,
		"duplicates", batch.Duplicates,
		"expired", batch.Expired,
		"archive", stem+".zip",
		"archive_bytes", packed.Size,
	)

	return &EntityResult{
		Entity:  entity,
		Label:   entity.Label(),
		File:    stem + ".zip",
		Path:    packed.Path,
		Records: batch.Count,
		Written: written.Written(),
		Skipped: written.Skipped,
	}, nil
}

// finish logs the outcome, updates metrics and records history.
func (s *Service) finish(ctx context.Context, logger *slog.Logger, result *ConvertResult, runErr error) {
	elapsed := result.FinishedAt.Sub(result.StartedAt)

	status := history.StatusSucceeded
	if runErr != nil {
		status = history.StatusFailed
		logger.Error("conversion failed",
			"error", runErr,
			"code", MapError(runErr).Code,
			"duration_ms", elapsed.Milliseconds(),
		)
	} else {
		logger.Info("conversion completed",
			"records", result.Records(),
			"skipped", result.Skipped(),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	metrics.RecordConversion(status, elapsed.Seconds())

	if s.history == nil {
		return
	}

	run := history.Run{
		ID:         result.RunID,
		FileName:   result.FileName,
		SheetName:  result.SheetName,
		Status:     status,
		Records:    result.Records(),
		Skipped:    result.Skipped(),
		Archives:   result.archiveSummaries(),
		ClientIP:   ClientIPFromContext(ctx),
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	if runErr != nil {
		msg := MapError(runErr)
		run.ErrorCode = msg.Code
		run.ErrorMessage = runErr.Error()
	}

	// The request may already be cancelled; history is written regardless.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := s.history.Record(hctx, run); err != nil {
		logger.Warn("failed to record conversion history", "error", err)
	}
}

// ErrHistoryDisabled is returned by History when no database is configured.
var ErrHistoryDisabled = errors.New("conversion history is not enabled")

// History returns up to limit recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Run, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

// HistoryEnabled reports whether runs are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// ResolveArchive returns the on-disk path of an archive from a finished run.
func (s *Service) ResolveArchive(runID, name string) (string, error) {
	return s.workspaces.Resolve(runID, name)
}

// LimiterStatus returns the conversion limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Shutdown stops accepting conversions and waits for running ones to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	return s.limiter.WaitForDrain(ctx)
}

// Profile returns the mapping profile in use.
func (s *Service) Profile() producer.Profile {
	return s.transformer.Profile()
}

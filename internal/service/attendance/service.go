package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/file"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/normalize"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ImportServiceImpl struct {
	attendance.ImportJobRepository
	directory   directory.Repository
	registry    *normalize.Registry
	fileService file.FileService
	now         func() time.Time
}

func NewImportService(
	jobRepo attendance.ImportJobRepository,
	directoryRepo directory.Repository,
	registry *normalize.Registry,
	fileService file.FileService,
) attendance.ImportService {
	return &ImportServiceImpl{
		ImportJobRepository: jobRepo,
		directory:           directoryRepo,
		registry:            registry,
		fileService:         fileService,
		now:                 time.Now,
	}
}

// Normalize implements attendance.ImportService.
func (s *ImportServiceImpl) Normalize(ctx context.Context, req attendance.NormalizeRequest) (attendance.NormalizeResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.NormalizeResponse{}, err
	}

	data, err := io.ReadAll(req.File)
	if err != nil {
		return attendance.NormalizeResponse{}, fmt.Errorf("failed to read upload: %w", err)
	}
	grid, err := spreadsheet.Read(bytes.NewReader(data), req.Filename)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrEmpty) {
			return attendance.NormalizeResponse{}, attendance.ErrEmptyFile
		}
		return attendance.NormalizeResponse{}, fmt.Errorf("%w: %v", attendance.ErrUnsupportedFile, err)
	}

	entries, err := s.directory.ListEntries(ctx, req.Company)
	if err != nil {
		return attendance.NormalizeResponse{}, fmt.Errorf("%w: %v", directory.ErrDirectoryUnavailable, err)
	}

	format := s.registry.ForBranch(req.Branch)
	correlationID := uuid.New().String()
	slog.DebugContext(ctx, "attendance run starting",
		"correlation_id", correlationID,
		"branch", req.Branch,
		"format", format.Key,
		"grid_kind", grid.Kind,
		"grid_rows", grid.Len(),
		"directory_entries", len(entries),
	)

	result, err := normalize.Run(ctx, normalize.RunInput{
		Grid:          grid,
		Format:        format,
		Company:       req.Company,
		Branch:        req.Branch,
		From:          req.From,
		To:            req.To,
		Resolver:      normalize.NewResolver(normalize.NewSnapshot(entries)),
		CorrelationID: correlationID,
	})
	if err != nil {
		return attendance.NormalizeResponse{}, err
	}

	paths, err := s.storeArtifacts(ctx, req, data, format.Key, correlationID, result)
	if err != nil {
		s.discard(ctx, paths)
		return attendance.NormalizeResponse{}, err
	}

	job, err := s.ImportJobRepository.Create(ctx, attendance.ImportJob{
		CorrelationID: correlationID,
		Company:       req.Company,
		Branch:        req.Branch,
		Format:        format.Key,
		ArtifactPath:  paths.xlsx,
		Status:        attendance.ImportStatusQueued,
		TotalRows:     len(result.Records),
		Unresolved:    result.Unresolved,
	})
	if err != nil {
		s.discard(ctx, paths)
		return attendance.NormalizeResponse{}, fmt.Errorf("failed to register import job: %w", err)
	}

	response := attendance.NormalizeResponse{
		CorrelationID: job.CorrelationID,
		Format:        format.Key,
		FilePeriod:    result.FilePeriod.String(),
		Processed:     result.Effective.String(),
		Records:       len(result.Records),
		Unresolved:    result.Unresolved,
		Summary:       result.Summary,
	}
	if response.Unresolved == nil {
		response.Unresolved = []string{}
	}
	response.ArtifactURL = s.url(ctx, paths.xlsx)
	response.CSVURL = s.url(ctx, paths.csv)
	response.ReportURL = s.url(ctx, paths.report)
	return response, nil
}

type artifactPaths struct {
	source string
	xlsx   string
	csv    string
	report string
}

func (s *ImportServiceImpl) storeArtifacts(ctx context.Context, req attendance.NormalizeRequest, source []byte, formatKey, correlationID string, result normalize.Result) (artifactPaths, error) {
	var paths artifactPaths

	xlsx, err := normalize.WriteXLSX(result.Records, correlationID)
	if err != nil {
		return paths, fmt.Errorf("failed to render artifact: %w", err)
	}
	csvData, err := normalize.WriteCSV(result.Records)
	if err != nil {
		return paths, fmt.Errorf("failed to render csv artifact: %w", err)
	}

	if paths.source, err = s.fileService.UploadSource(ctx, req.Company, correlationID, bytes.NewReader(source), req.Filename); err != nil {
		return paths, err
	}
	if paths.xlsx, err = s.fileService.UploadArtifact(ctx, req.Company, correlationID, "attendance.xlsx", xlsx, file.ContentTypeXLSX); err != nil {
		return paths, err
	}
	if paths.csv, err = s.fileService.UploadArtifact(ctx, req.Company, correlationID, "attendance.csv", csvData, file.ContentTypeCSV); err != nil {
		return paths, err
	}

	if len(result.Unresolved) > 0 {
		report, err := normalize.WriteUnresolvedReport(normalize.ReportInfo{
			CorrelationID: correlationID,
			Company:       req.Company,
			Branch:        req.Branch,
			Format:        formatKey,
			Period:        result.Effective,
			GeneratedAt:   s.now(),
		}, result.Unresolved, result.Summary)
		if err != nil {
			return paths, err
		}
		if paths.report, err = s.fileService.UploadArtifact(ctx, req.Company, correlationID, "unresolved.pdf", report, file.ContentTypePDF); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// discard removes files of a run that could not be handed to the importer.
func (s *ImportServiceImpl) discard(ctx context.Context, paths artifactPaths) {
	for _, p := range []string{paths.source, paths.xlsx, paths.csv, paths.report} {
		if p == "" {
			continue
		}
		if err := s.fileService.DeleteFile(ctx, p); err != nil {
			slog.WarnContext(ctx, "failed to remove orphaned artifact", "path", p, "error", err)
		}
	}
}

// url returns "" for files that were not written or cannot be linked.
func (s *ImportServiceImpl) url(ctx context.Context, path string) string {
	if path == "" {
		return ""
	}
	u, err := s.fileService.GetFileURL(ctx, path, 0)
	if err != nil {
		slog.WarnContext(ctx, "failed to build artifact url", "path", path, "error", err)
		return ""
	}
	return u
}

// artifactURL links the stored workbook only while it is still on disk.
func (s *ImportServiceImpl) artifactURL(ctx context.Context, path string) string {
	if path == "" {
		return ""
	}
	exists, err := s.fileService.FileExists(ctx, path)
	if err != nil {
		slog.WarnContext(ctx, "failed to check artifact", "path", path, "error", err)
		return ""
	}
	if !exists {
		return ""
	}
	return s.url(ctx, path)
}

// GetImport implements attendance.ImportService.
func (s *ImportServiceImpl) GetImport(ctx context.Context, correlationID string) (attendance.ImportResponse, error) {
	if !validator.IsValidUUID(correlationID) {
		return attendance.ImportResponse{}, attendance.ErrImportNotFound
	}

	job, err := s.ImportJobRepository.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ImportResponse{}, attendance.ErrImportNotFound
		}
		return attendance.ImportResponse{}, fmt.Errorf("failed to get import: %w", err)
	}

	unresolved := job.Unresolved
	if unresolved == nil {
		unresolved = []string{}
	}
	return attendance.ImportResponse{
		CorrelationID: job.CorrelationID,
		Company:       job.Company,
		Branch:        job.Branch,
		Format:        job.Format,
		ArtifactPath:  job.ArtifactPath,
		ArtifactURL:   s.artifactURL(ctx, job.ArtifactPath),
		Status:        string(job.Status),
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		FailedRows:    job.FailedRows,
		Unresolved:    unresolved,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}, nil
}

// CancelImport implements attendance.ImportService.
func (s *ImportServiceImpl) CancelImport(ctx context.Context, correlationID string) error {
	if !validator.IsValidUUID(correlationID) {
		return attendance.ErrImportNotFound
	}

	job, err := s.ImportJobRepository.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ErrImportNotFound
		}
		return fmt.Errorf("failed to get import: %w", err)
	}
	if job.Status == attendance.ImportStatusCancelled {
		return nil
	}

	if err := s.ImportJobRepository.UpdateStatus(ctx, correlationID, attendance.ImportStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel import: %w", err)
	}
	slog.InfoContext(ctx, "attendance import cancelled", "correlation_id", correlationID, "previous_status", job.Status)
	return nil
}

// ListFormats implements attendance.ImportService.
func (s *ImportServiceImpl) ListFormats(ctx context.Context) []attendance.FormatInfo {
	formats := s.registry.Formats()
	out := make([]attendance.FormatInfo, 0, len(formats))
	for _, f := range formats {
		branches := s.registry.Branches(f.Key)
		if branches == nil {
			branches = []string{}
		}
		out = append(out, attendance.FormatInfo{
			Key:         f.Key,
			Layout:      f.Layout,
			Policy:      string(f.Policy),
			ShiftPolicy: string(f.ShiftPolicy),
			Branches:    branches,
			Default:     f.Key == s.registry.Default(),
		})
	}
	return out
}

// Command normalize converts one attendance export into the canonical import artifact
// without going through the HTTP API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/repository/csvfile"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/normalize"
	"github.com/google/uuid"
)

type options struct {
	file      string
	branch    string
	company   string
	from      string
	to        string
	out       string
	directory string
	formats   string
	dsn       string
	wait      time.Duration
	verbose   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "attendance export to normalize (xlsx, xls, html, csv, txt)")
	flag.StringVar(&opts.branch, "branch", "", "branch key selecting the source format")
	flag.StringVar(&opts.company, "company", "", "company stamped on every record")
	flag.StringVar(&opts.from, "from", "", "first day to import, YYYY-MM-DD (default: start of file)")
	flag.StringVar(&opts.to, "to", "", "last day to import, YYYY-MM-DD (default: end of file)")
	flag.StringVar(&opts.out, "out", ".", "directory receiving attendance.xlsx, attendance.csv and unresolved.pdf")
	flag.StringVar(&opts.directory, "directory", "", "personnel directory CSV export")
	flag.StringVar(&opts.formats, "formats", "", "YAML file overriding branch formats")
	flag.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN; reads the directory from the database and registers the import job")
	flag.DurationVar(&opts.wait, "wait", 0, "with -dsn, follow the import job for at most this long")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, "normalize:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	source, err := os.ReadFile(opts.file)
	if err != nil && opts.file != "" {
		return err
	}

	req := attendance.NormalizeRequest{
		Company:  opts.company,
		Branch:   opts.branch,
		FromDate: opts.from,
		ToDate:   opts.to,
		Filename: filepath.Base(opts.file),
		File:     bytes.NewReader(source),
		Size:     int64(len(source)),
	}
	if opts.file == "" {
		req.File = nil
	}
	if err := req.Validate(); err != nil {
		return err
	}

	var db *database.DB
	if opts.dsn != "" {
		if db, err = database.NewPostgreSQLDB(ctx, opts.dsn, database.PoolConfig{MaxConns: 2}); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
	}

	entries, err := loadDirectory(ctx, opts, db)
	if err != nil {
		return err
	}

	registry, err := normalize.LoadRegistry(opts.formats)
	if err != nil {
		return err
	}
	format := registry.ForBranch(opts.branch)

	grid, err := spreadsheet.Read(bytes.NewReader(source), req.Filename)
	if err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrUnsupportedFile, err)
	}

	correlationID := uuid.New().String()
	result, err := normalize.Run(ctx, normalize.RunInput{
		Grid:          grid,
		Format:        format,
		Company:       opts.company,
		Branch:        opts.branch,
		From:          req.From,
		To:            req.To,
		Resolver:      normalize.NewResolver(normalize.NewSnapshot(entries)),
		CorrelationID: correlationID,
	})
	if err != nil {
		return err
	}

	artifact, err := writeArtifacts(opts, format.Key, correlationID, result)
	if err != nil {
		return err
	}

	response := attendance.NormalizeResponse{
		CorrelationID: correlationID,
		Format:        format.Key,
		FilePeriod:    result.FilePeriod.String(),
		Processed:     result.Effective.String(),
		Records:       len(result.Records),
		ArtifactURL:   artifact,
		Unresolved:    result.Unresolved,
		Summary:       result.Summary,
	}
	if response.Unresolved == nil {
		response.Unresolved = []string{}
	}

	if db != nil {
		if err := handOff(ctx, opts, db, format.Key, artifact, result, correlationID); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(response)
}

func loadDirectory(ctx context.Context, opts options, db *database.DB) ([]directory.Entry, error) {
	var repo directory.Repository
	switch {
	case opts.directory != "":
		r, err := csvfile.NewDirectoryRepository(opts.directory)
		if err != nil {
			return nil, err
		}
		repo = r
	case db != nil:
		repo = postgresql.NewDirectoryRepository(db)
	default:
		slog.Warn("no directory given, every employee will be reported unresolved")
		return nil, nil
	}

	entries, err := repo.ListEntries(ctx, opts.company)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", directory.ErrDirectoryUnavailable, err)
	}
	return entries, nil
}

func writeArtifacts(opts options, formatKey, correlationID string, result normalize.Result) (string, error) {
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return "", err
	}

	xlsx, err := normalize.WriteXLSX(result.Records, correlationID)
	if err != nil {
		return "", err
	}
	artifact := filepath.Join(opts.out, "attendance.xlsx")
	if err := os.WriteFile(artifact, xlsx, 0o644); err != nil {
		return "", err
	}

	csvData, err := normalize.WriteCSV(result.Records)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(opts.out, "attendance.csv"), csvData, 0o644); err != nil {
		return "", err
	}

	if len(result.Unresolved) > 0 {
		report, err := normalize.WriteUnresolvedReport(normalize.ReportInfo{
			CorrelationID: correlationID,
			Company:       opts.company,
			Branch:        opts.branch,
			Format:        formatKey,
			Period:        result.Effective,
			GeneratedAt:   time.Now(),
		}, result.Unresolved, result.Summary)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(opts.out, "unresolved.pdf"), report, 0o644); err != nil {
			return "", err
		}
	}
	return artifact, nil
}

// handOff registers the artifact with the bulk importer and optionally follows the job.
func handOff(ctx context.Context, opts options, db *database.DB, formatKey, artifact string, result normalize.Result, correlationID string) error {
	jobs := postgresql.NewImportJobRepository(db)
	_, err := jobs.Create(ctx, attendance.ImportJob{
		CorrelationID: correlationID,
		Company:       opts.company,
		Branch:        opts.branch,
		Format:        formatKey,
		ArtifactPath:  artifact,
		Status:        attendance.ImportStatusQueued,
		TotalRows:     len(result.Records),
		Unresolved:    result.Unresolved,
	})
	if err != nil {
		return fmt.Errorf("failed to register import job: %w", err)
	}
	slog.Info("import job registered", "correlation_id", correlationID)

	if opts.wait <= 0 {
		return nil
	}
	job, err := cron.NewImportMonitor(jobs, opts.wait).Await(ctx, correlationID, 5*time.Second)
	if errors.Is(err, cron.ErrWaitExceeded) {
		slog.Warn("import still running", "correlation_id", correlationID, "status", job.Status)
		return nil
	}
	return err
}

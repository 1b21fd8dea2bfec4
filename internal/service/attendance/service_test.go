package attendance

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/file"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/normalize"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const musterRoll = `ACME Works
Monthly Performance Register from 01/07/2025 to 31/07/2025
Days,1,2,3,4,5,6
Emp. Code: 0042,,,Emp. Name: Asha Rao
Status,P,A,ML,H,T,P
In Time,08:58,,,,,9.30
Out Time,18:10,,,,,
Emp. Code: 0077,,,Emp. Name: Ravi Das
Status,A,,,,,
`

type fakeDirectory struct {
	entries []directory.Entry
	err     error
}

func (f fakeDirectory) ListEntries(ctx context.Context, company string) ([]directory.Entry, error) {
	return f.entries, f.err
}

type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[string]attendance.ImportJob
	createErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[string]attendance.ImportJob)}
}

func (f *fakeJobs) Create(ctx context.Context, job attendance.ImportJob) (attendance.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return attendance.ImportJob{}, f.createErr
	}
	f.jobs[job.CorrelationID] = job
	return job, nil
}

func (f *fakeJobs) GetByCorrelationID(ctx context.Context, correlationID string) (attendance.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[correlationID]
	if !ok {
		return attendance.ImportJob{}, pgx.ErrNoRows
	}
	return job, nil
}

func (f *fakeJobs) UpdateStatus(ctx context.Context, correlationID string, status attendance.ImportStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[correlationID]
	if !ok {
		return pgx.ErrNoRows
	}
	job.Status = status
	f.jobs[correlationID] = job
	return nil
}

func (f *fakeJobs) ListPending(ctx context.Context) ([]attendance.ImportJob, error) {
	return nil, nil
}

type fixture struct {
	service attendance.ImportService
	jobs    *fakeJobs
	dir     string
}

func newFixture(t *testing.T, dir fakeDirectory) fixture {
	t.Helper()
	base := t.TempDir()
	store, err := storage.NewLocalStorage(base, "http://localhost:8080/artifacts/")
	require.NoError(t, err)
	jobs := newFakeJobs()
	return fixture{
		service: NewImportService(jobs, dir, normalize.NewRegistry(), file.NewFileService(store)),
		jobs:    jobs,
		dir:     base,
	}
}

func defaultDirectory() fakeDirectory {
	return fakeDirectory{entries: []directory.Entry{
		{EmployeeID: "HR-EMP-0042", EmployeeCode: "42", DisplayName: "Asha Rao"},
	}}
}

func musterRequest() attendance.NormalizeRequest {
	return attendance.NormalizeRequest{
		Company:  "ACME Works",
		Branch:   "Main",
		Filename: "muster.csv",
		File:     strings.NewReader(musterRoll),
	}
}

func TestImportService_Normalize_Success(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newFixture(t, defaultDirectory())

	// Act
	resp, err := fx.service.Normalize(context.Background(), musterRequest())

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, resp.CorrelationID)
	assert.Equal(t, normalize.FormatCrystal, resp.Format)
	assert.Equal(t, 5, resp.Records)
	assert.Equal(t, "2025-07-01 to 2025-07-31", resp.FilePeriod)
	assert.Equal(t, []string{"0077"}, resp.Unresolved)

	prefix := "http://localhost:8080/artifacts/imports/acme-works/" + resp.CorrelationID + "/"
	assert.Equal(t, prefix+"attendance.xlsx", resp.ArtifactURL)
	assert.Equal(t, prefix+"attendance.csv", resp.CSVURL)
	assert.Equal(t, prefix+"unresolved.pdf", resp.ReportURL)

	runDir := filepath.Join(fx.dir, "imports", "acme-works", resp.CorrelationID)
	for _, name := range []string{"source.csv", "attendance.xlsx", "attendance.csv", "unresolved.pdf"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}

	job, err := fx.jobs.GetByCorrelationID(context.Background(), resp.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, attendance.ImportStatusQueued, job.Status)
	assert.Equal(t, 5, job.TotalRows)
	assert.Equal(t, "imports/acme-works/"+resp.CorrelationID+"/attendance.xlsx", job.ArtifactPath)
}

func TestImportService_Normalize_NoReportWhenAllResolved(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := defaultDirectory()
	dir.entries = append(dir.entries, directory.Entry{EmployeeID: "HR-EMP-0077", EmployeeCode: "77"})
	fx := newFixture(t, dir)

	// Act
	resp, err := fx.service.Normalize(context.Background(), musterRequest())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, resp.Unresolved)
	assert.NotNil(t, resp.Unresolved)
	assert.Empty(t, resp.ReportURL)
}

func TestImportService_Normalize_ValidationError(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, defaultDirectory())
	req := musterRequest()
	req.Company = " "
	req.FromDate = "01/07/2025"

	_, err := fx.service.Normalize(context.Background(), req)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := verrs.ToMap()
	assert.Contains(t, fields, "company")
	assert.Contains(t, fields, "from_date")
}

func TestImportService_Normalize_InputErrors(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, defaultDirectory())

	empty := musterRequest()
	empty.File = strings.NewReader("  \n ")
	_, err := fx.service.Normalize(context.Background(), empty)
	assert.ErrorIs(t, err, attendance.ErrEmptyFile)

	garbage := musterRequest()
	garbage.Filename = "export.xlsx"
	garbage.File = strings.NewReader("not a workbook")
	_, err = fx.service.Normalize(context.Background(), garbage)
	assert.ErrorIs(t, err, attendance.ErrUnsupportedFile)
}

func TestImportService_Normalize_DirectoryUnavailable(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fakeDirectory{err: errors.New("connection refused")})

	_, err := fx.service.Normalize(context.Background(), musterRequest())

	assert.ErrorIs(t, err, directory.ErrDirectoryUnavailable)
	assert.Empty(t, fx.jobs.jobs)
}

func TestImportService_Normalize_RangeError(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, defaultDirectory())
	req := musterRequest()
	req.FromDate = "2025-06-30"

	_, err := fx.service.Normalize(context.Background(), req)

	assert.ErrorIs(t, err, attendance.ErrInvalidRange)
	assert.Contains(t, err.Error(), "2025-07-01")
	assert.Empty(t, fx.jobs.jobs, "no job is registered for a rejected run")
}

func TestImportService_Normalize_RemovesArtifactsWhenJobFails(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newFixture(t, defaultDirectory())
	fx.jobs.createErr = errors.New("insert failed")

	// Act
	_, err := fx.service.Normalize(context.Background(), musterRequest())

	// Assert
	require.Error(t, err)
	runs, err := os.ReadDir(filepath.Join(fx.dir, "imports", "acme-works"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	left, err := os.ReadDir(filepath.Join(fx.dir, "imports", "acme-works", runs[0].Name()))
	require.NoError(t, err)
	assert.Empty(t, left)
}

// failingStorage fails uploads whose key ends with failSuffix.
type failingStorage struct {
	storage.FileStorage
	failSuffix string
}

func (f failingStorage) Upload(ctx context.Context, r io.Reader, path, contentType string) (string, error) {
	if strings.HasSuffix(path, f.failSuffix) {
		return "", errors.New("disk full")
	}
	return f.FileStorage.Upload(ctx, r, path, contentType)
}

func TestImportService_Normalize_RemovesArtifactsWhenUploadFails(t *testing.T) {
	t.Parallel()

	for _, suffix := range []string{"attendance.xlsx", "attendance.csv", "unresolved.pdf"} {
		t.Run(suffix, func(t *testing.T) {
			t.Parallel()

			// Arrange
			base := t.TempDir()
			local, err := storage.NewLocalStorage(base, "http://localhost:8080/artifacts/")
			require.NoError(t, err)
			jobs := newFakeJobs()
			svc := NewImportService(jobs, defaultDirectory(), normalize.NewRegistry(),
				file.NewFileService(failingStorage{FileStorage: local, failSuffix: suffix}))

			// Act
			_, err = svc.Normalize(context.Background(), musterRequest())

			// Assert
			require.Error(t, err)
			assert.Empty(t, jobs.jobs)
			runs, err := os.ReadDir(filepath.Join(base, "imports", "acme-works"))
			require.NoError(t, err)
			require.Len(t, runs, 1)
			left, err := os.ReadDir(filepath.Join(base, "imports", "acme-works", runs[0].Name()))
			require.NoError(t, err)
			assert.Empty(t, left, "files uploaded before the failure are removed")
		})
	}
}

func TestImportService_GetImport(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newFixture(t, defaultDirectory())
	resp, err := fx.service.Normalize(context.Background(), musterRequest())
	require.NoError(t, err)

	// Act
	got, err := fx.service.GetImport(context.Background(), resp.CorrelationID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, resp.CorrelationID, got.CorrelationID)
	assert.Equal(t, "queued", got.Status)
	assert.Equal(t, "ACME Works", got.Company)
	assert.Equal(t, []string{"0077"}, got.Unresolved)
	assert.Equal(t, resp.ArtifactURL, got.ArtifactURL)

	require.NoError(t, os.Remove(filepath.Join(fx.dir, filepath.FromSlash(got.ArtifactPath))))
	got, err = fx.service.GetImport(context.Background(), resp.CorrelationID)
	require.NoError(t, err)
	assert.Empty(t, got.ArtifactURL, "a removed workbook is not linked")

	_, err = fx.service.GetImport(context.Background(), "missing")
	assert.ErrorIs(t, err, attendance.ErrImportNotFound)

	_, err = fx.service.GetImport(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, attendance.ErrImportNotFound)
}

func TestImportService_CancelImport(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newFixture(t, defaultDirectory())
	resp, err := fx.service.Normalize(context.Background(), musterRequest())
	require.NoError(t, err)

	// Act & Assert
	require.NoError(t, fx.service.CancelImport(context.Background(), resp.CorrelationID))
	require.NoError(t, fx.service.CancelImport(context.Background(), resp.CorrelationID), "cancelling twice is a no-op")

	got, err := fx.service.GetImport(context.Background(), resp.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.ImportStatusCancelled), got.Status)

	assert.ErrorIs(t, fx.service.CancelImport(context.Background(), "missing"), attendance.ErrImportNotFound)
}

func TestImportService_ListFormats(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, defaultDirectory())

	formats := fx.service.ListFormats(context.Background())

	require.Len(t, formats, 9)
	byKey := make(map[string]attendance.FormatInfo)
	for _, f := range formats {
		byKey[f.Key] = f
	}
	assert.True(t, byKey[normalize.FormatCrystal].Default)
	assert.Equal(t, []string{"VEDANTA PLANT II"}, byKey[normalize.FormatGateRegister].Branches)
	assert.Equal(t, "trust_source", byKey[normalize.FormatGateRegister].ShiftPolicy)
	assert.Equal(t, "paired", byKey[normalize.FormatMultiPunch].Policy)
	assert.Equal(t, normalize.LayoutBlock, byKey[normalize.FormatMatrix].Layout)
	assert.NotNil(t, byKey[normalize.FormatPunchLog].Branches)
}

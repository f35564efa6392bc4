package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/export"
	"github.com/campushub/campus-api/pkg/storage"
)

type reportRepository interface {
	ListByLecturer(ctx context.Context, lecturerID string, reportType models.ReportType) ([]models.Report, error)
	FindByID(ctx context.Context, id, lecturerID string) (*models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	Update(ctx context.Context, report *models.Report) (int64, error)
	Delete(ctx context.Context, id, lecturerID string) (int64, error)
}

// CreateReportRequest describes a new student report.
type CreateReportRequest struct {
	ReportType  string `json:"report_type" validate:"required"`
	StudentName string `json:"student_name" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

// UpdateReportRequest describes report modifications.
type UpdateReportRequest struct {
	ReportType  string `json:"report_type" validate:"required"`
	StudentName string `json:"student_name" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

// ReportExport describes a rendered export file.
type ReportExport struct {
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportService handles lecturer student reports and their CSV/PDF exports.
// Export files land in local storage and are fetched with signed tokens.
type ReportService struct {
	repo      reportRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the service. store and signer may be nil to
// disable exports.
func NewReportService(repo reportRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:      repo,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		validator: validate,
		logger:    logger,
	}
}

// List returns the lecturer's reports, optionally filtered by type.
func (s *ReportService) List(ctx context.Context, caller authz.Caller, reportType string) ([]models.Report, error) {
	var filter models.ReportType
	if reportType != "" {
		filter = models.ReportType(strings.ToUpper(reportType))
		switch filter {
		case models.ReportSent, models.ReportReceived:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type")
		}
	}
	reports, err := s.repo.ListByLecturer(ctx, caller.ID, filter)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return reports, nil
}

// Get returns one of the lecturer's reports.
func (s *ReportService) Get(ctx context.Context, caller authz.Caller, id string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.FromError(err)
	}
	return report, nil
}

// Create records a report for the calling lecturer.
func (s *ReportService) Create(ctx context.Context, caller authz.Caller, req CreateReportRequest) (*models.Report, error) {
	if caller.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can manage reports")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	reportType := models.ReportType(strings.ToUpper(req.ReportType))
	switch reportType {
	case models.ReportSent, models.ReportReceived:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type")
	}
	report := &models.Report{
		LecturerID:  caller.ID,
		ReportType:  reportType,
		StudentName: req.StudentName,
		Title:       req.Title,
		Content:     req.Content,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	return report, nil
}

// Update modifies one of the lecturer's reports.
func (s *ReportService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	reportType := models.ReportType(strings.ToUpper(req.ReportType))
	switch reportType {
	case models.ReportSent, models.ReportReceived:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type")
	}
	existing.ReportType = reportType
	existing.StudentName = req.StudentName
	existing.Title = req.Title
	existing.Content = req.Content

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return existing, nil
}

// Delete removes one of the lecturer's reports.
func (s *ReportService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	affected, err := s.repo.Delete(ctx, id, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return nil
}

// Export renders the lecturer's reports as csv or pdf, stores the file, and
// returns a signed download token.
func (s *ReportService) Export(ctx context.Context, caller authz.Caller, format, reportType string) (*ReportExport, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "exports are not configured")
	}
	reports, err := s.List(ctx, caller, reportType)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Type", "Student", "Title", "Content", "Created"},
	}
	for _, report := range reports {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Type":    string(report.ReportType),
			"Student": report.StudentName,
			"Title":   report.Title,
			"Content": report.Content,
			"Created": report.CreatedAt.Format("2006-01-02"),
		})
	}

	var payload []byte
	var ext string
	switch strings.ToLower(format) {
	case "csv":
		payload, err = s.csv.Render(dataset)
		ext = "csv"
	case "pdf":
		payload, err = s.pdf.Render(dataset, "Student Reports")
		ext = "pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	fileName := fmt.Sprintf("reports/%s/%s.%s", caller.ID, exportID, ext)
	if _, err := s.store.Save(fileName, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export token")
	}
	s.logger.Info("report export rendered",
		zap.String("lecturer_id", caller.ID),
		zap.String("file", fileName),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ReportExport{FileName: fileName, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenExport validates a download token and opens the stored file.
func (s *ReportService) OpenExport(token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "exports are not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	return s.store.Path(relPath), nil
}

package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mintsurvey/survey-service/internal/models"
	"github.com/mintsurvey/survey-service/internal/repositories"
)

type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportCSV  ExportFormat = "csv"
)

// ExportFile is a rendered spreadsheet ready to be sent to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders stored responses as spreadsheets.
type ExportService interface {
	ExportResponses(ctx context.Context, format ExportFormat, filters repositories.SurveyResponseFilters) (*ExportFile, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

var exportHeaders = []string{
	"ID", "Submitted At", "Name", "Age", "Gender", "City", "Other City", "Purchase Type",
	"Brand", "Model", "Purchase Month", "Purchase Year", "Condition",
	"Recommend Likelihood", "Recommend Reasons", "Satisfaction", "Repurchase Likelihood",
	"Alternative Brand", "Alternative Vehicle", "Email", "Contact Number",
}

func (s *exportService) ExportResponses(ctx context.Context, format ExportFormat, filters repositories.SurveyResponseFilters) (*ExportFile, error) {
	if format != ExportXLSX && format != ExportCSV {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	responses, err := s.collect(ctx, filters)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Exporting survey responses", "format", format, "count", len(responses))

	stamp := s.now().UTC().Format("20060102-150405")
	switch format {
	case ExportCSV:
		data, err := s.toCSV(responses)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    "survey-responses-" + stamp + ".csv",
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		data, err := s.toExcel(responses)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    "survey-responses-" + stamp + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	}
}

// collect pages through every response matching filters, oldest first.
func (s *exportService) collect(ctx context.Context, filters repositories.SurveyResponseFilters) ([]*models.SurveyResponse, error) {
	filters.Limit = repositories.MaxPageSize
	filters.Offset = 0
	filters.SortBy = "created_at"
	filters.SortOrder = "asc"

	var all []*models.SurveyResponse
	for {
		page, total, err := s.repo.SurveyResponse().List(ctx, nil, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to load responses for export: %w", err)
		}
		all = append(all, page...)
		filters.Offset += len(page)
		if len(page) == 0 || int64(filters.Offset) >= total {
			return all, nil
		}
	}
}

func (s *exportService) toCSV(responses []*models.SurveyResponse) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range responses {
		if err := writer.Write(responseRow(r)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

func (s *exportService) toExcel(responses []*models.SurveyResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Responses"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIndex, r := range responses {
		for col, value := range responseRow(r) {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIndex+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", rowIndex+2, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header row: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func responseRow(r *models.SurveyResponse) []string {
	return []string{
		r.ID,
		r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		r.Name,
		r.Age,
		r.Gender,
		r.City,
		r.OtherCity,
		r.PurchaseType,
		r.Brand,
		r.VehicleModel,
		r.PurchaseMonth,
		r.PurchaseYear,
		r.VehicleCondition,
		optionalInt(r.RecommendLikelihood),
		strings.Join(r.RecommendReason, "; "),
		optionalInt(r.SatisfactionLevel),
		optionalInt(r.RepurchaseLikelihood),
		r.AlternativeBrand,
		r.AlternativeVehicle,
		r.Email,
		r.ContactNumber,
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
	"github.com/noah-isme/healthconnect-api/pkg/export"
)

const (
	statsCacheKeyPrefix = "appointments:stats:"
	statsCachePattern   = statsCacheKeyPrefix + "*"
)

var exportHeaders = []string{"ID", "Date", "Time", "Type", "Status", "Student", "Student Number", "Nurse", "Symptoms", "Prescription"}

type statsStore interface {
	Stats(ctx context.Context, today models.Date) (*dto.AppointmentStats, error)
	List(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AppointmentDetail, error)
}

// ExportFile is a rendered appointment report.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// StatsService serves the admin dashboard aggregates and report exports.
type StatsService struct {
	store    statsStore
	cache    *CacheService
	ttl      time.Duration
	location *time.Location
	now      func() time.Time
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewStatsService constructs the service. cache may be nil.
func NewStatsService(store statsStore, cache *CacheService, ttl time.Duration, location *time.Location, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &StatsService{
		store:    store,
		cache:    cache,
		ttl:      ttl,
		location: location,
		now:      time.Now,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

func (s *StatsService) today() models.Date {
	return models.DateOf(s.now().In(s.location))
}

// Summary returns the aggregates and whether they came from cache.
func (s *StatsService) Summary(ctx context.Context) (*dto.AppointmentStats, bool, error) {
	today := s.today()
	return Remember(ctx, s.cache, statsCacheKeyPrefix+today.String(), s.ttl, func(ctx context.Context) (*dto.AppointmentStats, error) {
		stats, err := s.store.Stats(ctx, today)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment statistics")
		}
		stats.GeneratedAt = s.now().UTC()
		return stats, nil
	})
}

// Invalidate drops cached aggregates after an appointment mutation.
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, statsCachePattern); err != nil {
		s.logger.Warn("invalidate appointment stats", zap.Error(err))
	}
}

// Export renders every appointment as CSV or PDF.
func (s *StatsService) Export(ctx context.Context, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, err.Error())
	}

	items, err := s.store.List(ctx, dto.AppointmentFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	dataset := appointmentDataset(items)

	var payload []byte
	switch format {
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset, "Appointments Report")
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("appointments-%s.%s", s.today().String(), format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func appointmentDataset(items []dto.AppointmentDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"ID":             strconv.FormatInt(item.ID, 10),
			"Date":           item.AppointmentDate.String(),
			"Time":           item.TimeSlot,
			"Type":           consultationLabel(item.ConsultationType),
			"Status":         string(item.Status),
			"Student":        item.StudentName,
			"Student Number": models.StringValue(item.StudentNumber),
			"Nurse":          models.StringValue(item.NurseName),
			"Symptoms":       item.SymptomsDescription,
			"Prescription":   models.StringValue(item.Prescription),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

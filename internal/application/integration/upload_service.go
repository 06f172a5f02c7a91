package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/skubridge/backend/internal/domain/mapping"
	csvimport "github.com/skubridge/backend/internal/infrastructure/import"
	"github.com/skubridge/backend/internal/infrastructure/telemetry"
)

// UploadResult summarizes a mapping table replacement.
type UploadResult struct {
	SKUCount    int `json:"skuCount"`
	RowCount    int `json:"rowCount"`
	DroppedRows int `json:"droppedRows"`
}

// UploadService replaces the SKU to warehouse location mapping table
// from an uploaded CSV sheet.
type UploadService struct {
	mappings mapping.Store
	metrics  *telemetry.SyncMetrics
	logger   *zap.Logger
}

// UploadServiceOption configures optional UploadService collaborators.
type UploadServiceOption func(*UploadService)

// WithUploadMetrics enables metrics recording for uploads.
func WithUploadMetrics(metrics *telemetry.SyncMetrics) UploadServiceOption {
	return func(s *UploadService) {
		s.metrics = metrics
	}
}

// WithUploadLogger sets the service logger.
func WithUploadLogger(logger *zap.Logger) UploadServiceOption {
	return func(s *UploadService) {
		s.logger = logger
	}
}

// NewUploadService creates a new UploadService.
func NewUploadService(mappings mapping.Store, opts ...UploadServiceOption) *UploadService {
	s := &UploadService{
		mappings: mappings,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceMappings parses the CSV sheet and replaces the stored mapping
// table wholesale. Rows with empty cells are dropped; for duplicate
// SKU and warehouse pairs the first row wins.
func (s *UploadService) ReplaceMappings(ctx context.Context, sheet []byte) (*UploadResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "mapping_upload", "replace")
	defer span.End()

	rows, stats, err := csvimport.ParseMappingRows(sheet)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	table := mapping.BuildTable(rows)
	if err := s.mappings.Save(ctx, table); err != nil {
		s.logger.Error("Mapping table save failed", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &UploadResult{
		SKUCount:    table.SKUCount(),
		RowCount:    len(rows),
		DroppedRows: stats.DroppedRows,
	}

	s.logger.Info("Mapping table replaced",
		zap.Int("sku_count", result.SKUCount),
		zap.Int("row_count", result.RowCount),
		zap.Int("dropped_rows", result.DroppedRows),
	)
	if s.metrics != nil {
		s.metrics.RecordMappingUpload(ctx, int64(result.RowCount), int64(result.DroppedRows))
		s.metrics.RecordMappingTableSize(ctx, int64(result.SKUCount))
	}
	return result, nil
}

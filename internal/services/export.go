package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/messaging"
	"github.com/temcen/moviepick/pkg/models"
)

var exportHeader = []string{"movieId", "title", "genres"}

// ExportFilename is the user-specific name of an exported result.
func ExportFilename(userID int) string {
	return fmt.Sprintf("recommendations_user_%d.csv", userID)
}

// WriteCSV serializes movies as movieId,title,genres rows with a header.
func WriteCSV(w io.Writer, movies []models.Movie) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, m := range movies {
		if err := writer.Write([]string{strconv.Itoa(m.ID), m.Title, m.GenreString()}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ParseCSV reads back what WriteCSV produced.
func ParseCSV(r io.Reader) ([]models.Movie, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(exportHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIOFailure, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", models.ErrIOFailure)
	}

	movies := make([]models.Movie, 0, len(records)-1)
	for i, record := range records[1:] {
		id, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid movieId %q", models.ErrIOFailure, i+2, record[0])
		}
		movies = append(movies, models.Movie{
			ID:     id,
			Title:  record[1],
			Genres: models.SplitGenres(record[2]),
		})
	}
	return movies, nil
}

// ExportService writes session results to disk or into download buffers.
type ExportService struct {
	recommendations RecommendationServiceInterface
	dir             string
	events          EventPublisher
	metrics         *MetricsCollector
	logger          *logrus.Logger
}

func NewExportService(
	recommendations RecommendationServiceInterface,
	dir string,
	events EventPublisher,
	metrics *MetricsCollector,
	logger *logrus.Logger,
) *ExportService {
	return &ExportService{
		recommendations: recommendations,
		dir:             dir,
		events:          events,
		metrics:         metrics,
		logger:          logger,
	}
}

func (e *ExportService) lastResult(ctx context.Context, userID string) (int, *models.RecommendationResult, error) {
	id, err := ParseUserID(userID)
	if err != nil {
		return 0, nil, err
	}
	if id == nil {
		return 0, nil, fmt.Errorf("%w: user id is required to export recommendations", models.ErrInvalidInput)
	}

	result, err := e.recommendations.LastResult(ctx, *id)
	if err != nil {
		return 0, nil, err
	}
	if len(result.Movies) == 0 {
		return 0, nil, fmt.Errorf("%w: no recommendations to save, generate first", models.ErrMissingData)
	}
	return *id, result, nil
}

// SaveForUser writes the user's last result into the export directory,
// replacing any earlier export for that user.
func (e *ExportService) SaveForUser(ctx context.Context, userID string) (*models.ExportResponse, error) {
	id, result, err := e.lastResult(ctx, userID)
	if err != nil {
		return nil, err
	}

	filename := ExportFilename(id)
	path, err := e.writeFile(filename, result.Movies)
	if err != nil {
		return nil, err
	}

	e.metrics.RecordExport("file")
	publishEvent(ctx, e.events, e.logger, messaging.EventRecommendationsExported, result, filename)

	e.logger.WithFields(logrus.Fields{
		"user_id":   id,
		"result_id": result.ID,
		"path":      path,
	}).Info("Recommendations saved")

	return &models.ExportResponse{
		UserID:   id,
		Filename: filename,
		Path:     path,
		Count:    len(result.Movies),
	}, nil
}

// CSVForUser renders the user's last result for download.
func (e *ExportService) CSVForUser(ctx context.Context, userID string) (string, []byte, error) {
	id, result, err := e.lastResult(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, result.Movies); err != nil {
		return "", nil, fmt.Errorf("%w: render csv: %v", models.ErrIOFailure, err)
	}

	e.metrics.RecordExport("download")
	return ExportFilename(id), buf.Bytes(), nil
}

// writeFile writes through a temp file and renames it into place so readers
// never see a partial export.
func (e *ExportService) writeFile(filename string, movies []models.Movie) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create export dir: %v", models.ErrIOFailure, err)
	}

	tmp, err := os.CreateTemp(e.dir, filename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", models.ErrIOFailure, err)
	}
	tmpName := tmp.Name()

	writeErr := WriteCSV(tmp, movies)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: write export: %v", models.ErrIOFailure, err)
	}

	target := filepath.Join(e.dir, filename)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: move export into place: %v", models.ErrIOFailure, err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return target, nil
	}
	return abs, nil
}

package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Fepozopo/xray/internal/config"
	"github.com/Fepozopo/xray/internal/domain"
	"github.com/Fepozopo/xray/internal/repository"
	"github.com/Fepozopo/xray/pkg/stdimg"
)

var (
	ErrTooLarge         = errors.New("upload too large")
	ErrFormatNotAllowed = errors.New("file format not allowed")
	ErrExportFailed     = errors.New("export failed")
)

type EnhanceService interface {
	Enhance(ctx context.Context, data []byte, filename, technique string, params map[string]string) (*domain.Enhancement, error)
	Describe(e *domain.Enhancement) (*domain.EnhanceResponse, error)
	Export(ctx context.Context, e *domain.Enhancement) (*domain.Export, error)
	Report(ctx context.Context, e *domain.Enhancement) ([]byte, error)
}

type enhanceService struct {
	sink repository.ExportSink
	cfg  *config.Config
	log  *zap.Logger
	now  func() time.Time
}

func NewEnhanceService(sink repository.ExportSink, cfg *config.Config, log *zap.Logger) EnhanceService {
	if sink == nil {
		sink = repository.NopSink{}
	}
	return &enhanceService{
		sink: sink,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
	}
}

// Enhance decodes one upload and runs the requested technique on it.
// Technique and parameters are resolved before the image is decoded.
func (s *enhanceService) Enhance(ctx context.Context, data []byte, filename, technique string, params map[string]string) (*domain.Enhancement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.App.MaxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), s.cfg.App.MaxUploadSize)
	}
	if ext := filepath.Ext(filename); ext != "" && !s.cfg.App.FormatAllowed(ext) {
		return nil, fmt.Errorf("%w: %q", ErrFormatNotAllowed, ext)
	}

	t, err := stdimg.ParseTechnique(technique, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	gray, format, err := stdimg.DecodeBytesLimit(data, s.cfg.App.MaxPixels)
	if err != nil {
		return nil, err
	}
	res, err := stdimg.Enhance(gray, t)
	if err != nil {
		return nil, err
	}

	e := &domain.Enhancement{
		ID:           uuid.New().String(),
		OriginalName: filename,
		Format:       format,
		Original:     gray,
		Result:       res,
		CreatedAt:    s.now(),
		Elapsed:      time.Since(start),
	}

	s.log.Info("Image enhanced",
		zap.String("id", e.ID),
		zap.String("filename", filename),
		zap.String("format", format),
		zap.String("technique", t.Name()),
		zap.Int("width", gray.Bounds().Dx()),
		zap.Int("height", gray.Bounds().Dy()),
		zap.Duration("elapsed", e.Elapsed))

	return e, nil
}

// Describe builds the JSON view of an enhancement, including the encoded
// processed image.
func (s *enhanceService) Describe(e *domain.Enhancement) (*domain.EnhanceResponse, error) {
	png, err := stdimg.EncodePNG(e.Result.Image)
	if err != nil {
		return nil, err
	}
	orig := stdimg.ComputeHistogram(e.Original)
	proc := stdimg.ComputeHistogram(e.Result.Image)

	resp := &domain.EnhanceResponse{
		ID:        e.ID,
		Technique: e.Result.Technique.Name(),
		Title:     e.Result.Title(),
		Format:    e.Format,
		Width:     e.Result.Image.Bounds().Dx(),
		Height:    e.Result.Image.Bounds().Dy(),
		Histograms: domain.Histograms{
			Original:  orig[:],
			Processed: proc[:],
		},
		DownloadName: stdimg.ExportFilename(e.CreatedAt),
		ProcessedPNG: base64.StdEncoding.EncodeToString(png),
		ElapsedMS:    e.Elapsed.Milliseconds(),
	}
	if e.Result.LUT != nil {
		resp.LUT = e.Result.LUT.Ints()
	}
	return resp, nil
}

// Export encodes the processed image as PNG and, when a sink is configured,
// uploads the same bytes under the download name.
func (s *enhanceService) Export(ctx context.Context, e *domain.Enhancement) (*domain.Export, error) {
	data, err := stdimg.EncodePNG(e.Result.Image)
	if err != nil {
		return nil, err
	}
	out := &domain.Export{
		Filename:    stdimg.ExportFilename(e.CreatedAt),
		ContentType: "image/png",
		Data:        data,
	}

	key, err := s.sink.Export(ctx, out.Filename, data, out.ContentType)
	if err != nil {
		s.log.Error("Failed to export image", zap.String("id", e.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	out.Key = key
	return out, nil
}

// Report renders the comparison sheet for an enhancement as PNG.
func (s *enhanceService) Report(ctx context.Context, e *domain.Enhancement) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheet := stdimg.RenderReport(e.Original, e.Result.Image, e.Result.LUT, e.Result.Title())
	if sheet == nil {
		return nil, stdimg.ErrNilImage
	}
	return stdimg.EncodePNG(sheet)
}

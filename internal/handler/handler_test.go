package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Fepozopo/xray/internal/config"
	"github.com/Fepozopo/xray/internal/domain"
	"github.com/Fepozopo/xray/internal/service"
	"github.com/Fepozopo/xray/pkg/stdimg"
)

type fakeSink struct {
	err  error
	keys []string
}

func (f *fakeSink) Export(_ context.Context, filename string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "enhanced/" + filename
	f.keys = append(f.keys, key)
	return key, nil
}

func newRouter(t *testing.T, sink *fakeSink) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)
	svc := service.NewEnhanceService(sink, cfg, zap.NewNop())
	h := NewHandler(svc, cfg.App.MaxUploadSize, []byte("<h1>X-Ray</h1>"), zap.NewNop())

	r := gin.New()
	r.GET("/", h.GetUI)
	r.GET("/health", h.HealthCheck)
	r.GET("/api/techniques", h.Techniques)
	r.POST("/api/enhance", h.Enhance)
	r.POST("/api/enhance/download", h.Download)
	r.POST("/api/enhance/report", h.Report)
	return r
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 4)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if data != nil {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestEnhanceEndpoint(t *testing.T) {
	r := newRouter(t, &fakeSink{})
	req := multipartRequest(t, "/api/enhance", "scan.png", samplePNG(t), map[string]string{
		"technique": "contrast_stretch",
		"low":       "10",
		"high":      "200",
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.EnhanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "contrast_stretch", resp.Technique)
	require.Equal(t, "Contrast Stretching (10-200)", resp.Title)
	require.Equal(t, 8, resp.Width)
	require.Len(t, resp.LUT, 256)
	require.Equal(t, 0, resp.LUT[5])
	require.Equal(t, 255, resp.LUT[200])
	require.Regexp(t, `^enhanced_\d{8}_\d{6}\.png$`, resp.DownloadName)
	require.NotEmpty(t, resp.ProcessedPNG)
}

func TestEnhanceEndpointErrors(t *testing.T) {
	r := newRouter(t, &fakeSink{})
	cases := []struct {
		name     string
		req      *http.Request
		wantCode int
	}{
		{"no file", multipartRequest(t, "/api/enhance", "", nil, map[string]string{"technique": "gamma"}), http.StatusBadRequest},
		{"corrupt", multipartRequest(t, "/api/enhance", "scan.png", []byte("nope"), map[string]string{"technique": "gamma"}), http.StatusBadRequest},
		{"unknown technique", multipartRequest(t, "/api/enhance", "scan.png", samplePNG(t), map[string]string{"technique": "blur"}), http.StatusBadRequest},
		{"bad gamma", multipartRequest(t, "/api/enhance", "scan.png", samplePNG(t), map[string]string{"technique": "gamma", "gamma": "-1"}), http.StatusBadRequest},
		{"extension", multipartRequest(t, "/api/enhance", "scan.exe", samplePNG(t), map[string]string{"technique": "gamma"}), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, tc.req)
			require.Equal(t, tc.wantCode, rec.Code, rec.Body.String())
			require.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestEnhanceEndpointPixelLimit(t *testing.T) {
	t.Setenv("APP_MAX_PIXELS", "32")
	r := newRouter(t, &fakeSink{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, "/api/enhance", "scan.png", samplePNG(t), map[string]string{"technique": "gamma"}))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "image dimensions too large")
}

func TestDownloadEndpoint(t *testing.T) {
	sink := &fakeSink{}
	r := newRouter(t, sink)
	req := multipartRequest(t, "/api/enhance/download", "scan.png", samplePNG(t), map[string]string{"technique": "histeq"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Regexp(t, `attachment; filename="enhanced_\d{8}_\d{6}\.png"`, rec.Header().Get("Content-Disposition"))
	require.Len(t, sink.keys, 1)
	require.Equal(t, sink.keys[0], rec.Header().Get("X-Export-Key"))

	img, _, err := stdimg.DecodeBytes(rec.Body.Bytes())
	require.NoError(t, err)
	require.Equal(t, 8, img.Bounds().Dx())
}

func TestDownloadExportFailure(t *testing.T) {
	r := newRouter(t, &fakeSink{err: errors.New("unreachable")})
	req := multipartRequest(t, "/api/enhance/download", "scan.png", samplePNG(t), map[string]string{"technique": "gamma"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReportEndpoint(t *testing.T) {
	r := newRouter(t, &fakeSink{})
	req := multipartRequest(t, "/api/enhance/report", "scan.png", samplePNG(t), map[string]string{"technique": "gamma", "gamma": "0.5"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
}

func TestStaticEndpoints(t *testing.T) {
	r := newRouter(t, &fakeSink{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"OK"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/techniques", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Techniques []stdimg.CommandSpec `json:"techniques"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Techniques, len(stdimg.Commands))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, rec.Body.String(), "X-Ray")
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, statusFor(&stdimg.DecodeError{Op: "png", Err: errors.New("x")}))
	require.Equal(t, http.StatusBadRequest, statusFor(&stdimg.ParamError{Technique: "gamma", Param: "gamma"}))
	require.Equal(t, http.StatusBadGateway, statusFor(service.ErrExportFailed))
	require.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

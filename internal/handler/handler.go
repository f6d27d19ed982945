package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fepozopo/xray/internal/domain"
	"github.com/Fepozopo/xray/internal/service"
	"github.com/Fepozopo/xray/pkg/stdimg"
)

type Handler struct {
	service   service.EnhanceService
	maxUpload int64
	index     []byte
	log       *zap.Logger
}

func NewHandler(service service.EnhanceService, maxUpload int64, index []byte, log *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		maxUpload: maxUpload,
		index:     index,
		log:       log,
	}
}

// paramNames are the form fields forwarded to stdimg.ParseTechnique.
var paramNames = []string{"gamma", "low", "high"}

// enhance reads the multipart upload and runs the requested technique. On
// failure it writes the error response itself and returns nil.
func (h *Handler) enhance(c *gin.Context) *domain.Enhancement {
	file, err := c.FormFile("image")
	if err != nil {
		h.log.Warn("Failed to get file from form", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return nil
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return nil
	}

	f, err := file.Open()
	if err != nil {
		h.log.Error("Failed to open file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process file"})
		return nil
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		h.log.Error("Failed to read file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return nil
	}

	params := make(map[string]string, len(paramNames))
	for _, name := range paramNames {
		if v, ok := c.GetPostForm(name); ok {
			params[name] = v
		}
	}

	e, err := h.service.Enhance(c.Request.Context(), data, file.Filename, c.PostForm("technique"), params)
	if err != nil {
		h.writeError(c, err)
		return nil
	}
	return e
}

// statusFor maps core and service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stdimg.ErrDecode),
		errors.Is(err, stdimg.ErrInvalidParameter),
		errors.Is(err, stdimg.ErrInvalidTechnique),
		errors.Is(err, service.ErrTooLarge),
		errors.Is(err, service.ErrFormatNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrExportFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	h.log.Info("Rejected request", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) Enhance(c *gin.Context) {
	e := h.enhance(c)
	if e == nil {
		return
	}
	resp, err := h.service.Describe(e)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Download(c *gin.Context) {
	e := h.enhance(c)
	if e == nil {
		return
	}
	out, err := h.service.Export(c.Request.Context(), e)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if out.Key != "" {
		c.Header("X-Export-Key", out.Key)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Header("Content-Length", strconv.Itoa(len(out.Data)))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func (h *Handler) Report(c *gin.Context) {
	e := h.enhance(c)
	if e == nil {
		return
	}
	data, err := h.service.Report(c.Request.Context(), e)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (h *Handler) Techniques(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"techniques": stdimg.Commands})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) GetUI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.index)
}

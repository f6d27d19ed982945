package domain

import (
	"image"
	"time"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

// Enhancement is one processed upload. Nothing about it outlives the request.
type Enhancement struct {
	ID           string
	OriginalName string
	Format       string
	Original     *image.Gray
	Result       stdimg.Result
	CreatedAt    time.Time
	Elapsed      time.Duration
}

type Histograms struct {
	Original  []int `json:"original"`
	Processed []int `json:"processed"`
}

// EnhanceResponse is the JSON body returned by POST /api/enhance.
type EnhanceResponse struct {
	ID           string     `json:"id"`
	Technique    string     `json:"technique"`
	Title        string     `json:"title"`
	Format       string     `json:"format"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	LUT          []int      `json:"lut,omitempty"`
	Histograms   Histograms `json:"histograms"`
	DownloadName string     `json:"download_name"`
	ProcessedPNG string     `json:"processed_png"`
	ElapsedMS    int64      `json:"elapsed_ms"`
}

// Export is an encoded processed image ready for download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	// Key is the object key in the export bucket, empty when export is disabled.
	Key string
}

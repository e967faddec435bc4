// Package api provides the REST API server for chartbridge
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/james-see/chartbridge/pkg/converter"
	"github.com/james-see/chartbridge/pkg/converter/targets"
	"github.com/james-see/chartbridge/pkg/logging"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title chartbridge API
// @version 1.0
// @description API for converting SUS charts to USC documents and game note lists
// @host localhost:8080
// @BasePath /api/v1

// RequestIDHeader carries the id assigned to every request
const RequestIDHeader = "X-Request-ID"

// ChartResponse is the JSON body of chart conversions
type ChartResponse struct {
	Name     string             `json:"name"`
	Target   string             `json:"target"`
	Notes    json.RawMessage    `json:"notes"`
	Metadata converter.Metadata `json:"metadata"`
}

type server struct {
	log *zap.Logger
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(log *zap.Logger) *gin.Engine {
	s := &server{log: logging.OrNop(log).Named("api")}

	r := gin.Default()

	r.Use(requestIDMiddleware())
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert/sus2usc", s.handleSusToUSC)
		v1.POST("/convert/sus2chart", s.handleSusToChart)
		v1.POST("/convert/usc2chart", s.handleUSCToChart)
		v1.POST("/convert/sus2midi", s.handleSusToMIDI)
		v1.POST("/convert/usc2midi", s.handleUSCToMIDI)
		v1.GET("/formats", listFormats)
		v1.GET("/targets", listTargets)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on the specified port
func StartServer(port int, log *zap.Logger) error {
	return NewRouter(log).Run(fmt.Sprintf(":%d", port))
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "chartbridge",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"sus", "usc", "chart", "midi"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// listTargets godoc
// @Summary List target profiles
// @Description Returns the chart target profiles
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]targets.Info
// @Router /api/v1/targets [get]
func listTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"targets": targets.Available(),
	})
}

// handleSusToUSC godoc
// @Summary Convert SUS to USC
// @Description Upload a .sus chart and receive a .usc document
// @Tags convert
// @Accept multipart/form-data
// @Produce application/json
// @Param file formData file true "SUS chart to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/sus2usc [post]
func (s *server) handleSusToUSC(c *gin.Context) {
	data, filename, ok := s.readUpload(c)
	if !ok {
		return
	}

	result, err := s.newConverter(c).SusToUSC(data)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	outputName := converter.ChartName(filename) + ".usc"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, "application/json", result)
}

// handleSusToChart godoc
// @Summary Convert SUS to a game chart
// @Description Upload a .sus chart and receive notes and metadata
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "SUS chart to convert"
// @Param target query string false "Target profile (default: mygame)"
// @Success 200 {object} ChartResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/sus2chart [post]
func (s *server) handleSusToChart(c *gin.Context) {
	s.handleChart(c, converter.FormatSUS)
}

// handleUSCToChart godoc
// @Summary Convert USC to a game chart
// @Description Upload a .usc document and receive notes and metadata
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "USC document to convert"
// @Param target query string false "Target profile (default: mygame)"
// @Success 200 {object} ChartResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/usc2chart [post]
func (s *server) handleUSCToChart(c *gin.Context) {
	s.handleChart(c, converter.FormatUSC)
}

// handleSusToMIDI godoc
// @Summary Render a SUS chart as MIDI
// @Description Upload a .sus chart and receive a preview MIDI file
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "SUS chart to render"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/sus2midi [post]
func (s *server) handleSusToMIDI(c *gin.Context) {
	s.handleMIDI(c, converter.FormatSUS)
}

// handleUSCToMIDI godoc
// @Summary Render a USC document as MIDI
// @Description Upload a .usc document and receive a preview MIDI file
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "USC document to render"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/usc2midi [post]
func (s *server) handleUSCToMIDI(c *gin.Context) {
	s.handleMIDI(c, converter.FormatUSC)
}

func (s *server) newConverter(c *gin.Context) *converter.Converter {
	return converter.New(targets.ByName(c.DefaultQuery("target", targets.MyGameID)),
		converter.WithLogger(s.log))
}

func (s *server) readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func (s *server) fail(c *gin.Context, status int, err error) {
	s.log.Warn("conversion failed",
		zap.String("request_id", c.GetString("requestID")),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *server) chart(c *gin.Context, conv *converter.Converter, from converter.Format) (*converter.Chart, string, bool) {
	data, filename, ok := s.readUpload(c)
	if !ok {
		return nil, "", false
	}

	name := converter.ChartName(filename)
	var (
		chart *converter.Chart
		err   error
	)
	switch from {
	case converter.FormatSUS:
		chart, err = conv.SusToChart(data, name)
	default:
		chart, err = conv.USCToChart(data, name)
	}
	if err != nil {
		// USC decode errors are caused by the upload
		s.fail(c, http.StatusBadRequest, err)
		return nil, "", false
	}
	return chart, name, true
}

func (s *server) handleChart(c *gin.Context, from converter.Format) {
	conv := s.newConverter(c)
	chart, name, ok := s.chart(c, conv, from)
	if !ok {
		return
	}

	notes, _, err := conv.EncodeChart(chart)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, ChartResponse{
		Name:     name,
		Target:   conv.GetTarget().ID(),
		Notes:    notes,
		Metadata: chart.Metadata,
	})
}

func (s *server) handleMIDI(c *gin.Context, from converter.Format) {
	conv := s.newConverter(c)
	chart, name, ok := s.chart(c, conv, from)
	if !ok {
		return
	}

	result, err := conv.ChartToMIDI(chart)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.mid", name))
	c.Data(http.StatusOK, "audio/midi", result)
}

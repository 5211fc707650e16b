package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"customereye/database"
	"customereye/models"
	"customereye/pdf"
	"customereye/storage"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	service  *database.ReportService
	store    *storage.ObjectStore
	exporter *pdf.Exporter
}

// NewHandlers creates a new handlers instance. store may be nil when object
// storage is not configured.
func NewHandlers(service *database.ReportService, store *storage.ObjectStore, exporter *pdf.Exporter) *Handlers {
	return &Handlers{
		service:  service,
		store:    store,
		exporter: exporter,
	}
}

// HealthCheck returns a simple health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "customereye",
	})
}

// ListReports serves the filtered, sorted, paginated report listing.
func (h *Handlers) ListReports(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.ListReports(c.Request.Context(), *query)
	if err != nil {
		log.Errorf("Failed to list reports: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports":     result.Reports,
		"total":       result.Total,
		"page":        result.Page,
		"limit":       result.Limit,
		"total_pages": result.TotalPages,
		"filters": gin.H{
			"industry": query.Industry,
			"country":  query.Country,
			"access":   query.ReportType,
			"search":   query.Search,
		},
	})
}

func parseListQuery(c *gin.Context) (*models.ListQuery, error) {
	q := &models.ListQuery{
		Industry:   c.Query("industry"),
		Country:    c.Query("country"),
		Category:   c.Query("category"),
		ReportType: c.Query("access"),
		Language:   c.Query("language"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		Page:       1,
		Limit:      10,
	}

	var err error
	if q.RatingFloor, err = parseFloat(c, "rating"); err != nil {
		return nil, err
	}
	if q.MinRating, err = parseFloat(c, "minRating"); err != nil {
		return nil, err
	}
	if q.MaxRating, err = parseFloat(c, "maxRating"); err != nil {
		return nil, err
	}
	if q.MinReviews, err = parseInt(c, "minReviews", 0); err != nil {
		return nil, err
	}
	if q.MaxReviews, err = parseInt(c, "maxReviews", 0); err != nil {
		return nil, err
	}
	if q.Page, err = parseInt(c, "page", 1); err != nil {
		return nil, err
	}
	if q.Limit, err = parseInt(c, "limit", 10); err != nil {
		return nil, err
	}

	if paid := c.Query("paid"); paid != "" {
		value, err := strconv.ParseBool(paid)
		if err != nil {
			return nil, fmt.Errorf("invalid paid parameter: %q", paid)
		}
		q.Paid = &value
	}

	if q.CreatedAfter, err = parseTime(c, "createdAfter"); err != nil {
		return nil, err
	}
	if q.CreatedBefore, err = parseTime(c, "createdBefore"); err != nil {
		return nil, err
	}
	if q.UpdatedAfter, err = parseTime(c, "updatedAfter"); err != nil {
		return nil, err
	}
	if q.UpdatedBefore, err = parseTime(c, "updatedBefore"); err != nil {
		return nil, err
	}

	return q, nil
}

func parseFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %q", name, raw)
	}
	return value, nil
}

func parseInt(c *gin.Context, name string, defaultValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %q", name, raw)
	}
	return value, nil
}

func parseTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s parameter: %q", name, raw)
}

// GetReport serves the full detail payload for an id or slug.
func (h *Handlers) GetReport(c *gin.Context) {
	idOrSlug := c.Param("idOrSlug")

	detail, err := h.service.GetReport(c.Request.Context(), idOrSlug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "report not found"})
			return
		}
		log.Errorf("Failed to get report %s: %v", idOrSlug, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get report"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetFile streams a data file's raw bytes with its stored content type.
func (h *Handlers) GetFile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid file id"})
		return
	}

	file, err := h.service.GetFile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
			return
		}
		log.Errorf("Failed to get file %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get file"})
		return
	}

	data, err := storage.ResolveContent(c.Request.Context(), h.store, file.Content)
	if err != nil {
		log.Errorf("Failed to resolve content for file %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to read file content"})
		return
	}

	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, file.MimeType, data)
}

// GetIndustries lists the distinct industries. Upstream failures degrade to
// an empty list; this feeds navigational UI chrome, not detail views.
func (h *Handlers) GetIndustries(c *gin.Context) {
	industries, err := h.service.GetIndustries(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to get industries: %v", err)
		industries = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"industries": industries,
		"total":      len(industries),
	})
}

// SearchSuggestions serves the company-name typeahead.
func (h *Handlers) SearchSuggestions(c *gin.Context) {
	limit, err := parseInt(c, "limit", 6)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	suggestions, err := h.service.SearchSuggestions(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		log.Errorf("Failed to get search suggestions: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// pdfRequest is the body of both PDF endpoints.
type pdfRequest struct {
	CompanyName string `json:"companyName"`
}

// GeneratePDFNavigate prints the live report page via the headless browser
// and streams the PDF inline.
func (h *Handlers) GeneratePDFNavigate(c *gin.Context) {
	h.generatePDF(c, h.exporter.ExportNavigate, "inline")
}

// GeneratePDFRendered prints server-rendered markup and streams the PDF as
// an attachment.
func (h *Handlers) GeneratePDFRendered(c *gin.Context) {
	h.generatePDF(c, h.exporter.ExportRendered, "attachment")
}

func (h *Handlers) generatePDF(c *gin.Context, export func(ctx context.Context, companyName string) ([]byte, error), disposition string) {
	var req pdfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	data, err := export(c.Request.Context(), req.CompanyName)
	if err != nil {
		var validationErr *models.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: validationErr.Error()})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "report not found"})
		default:
			log.Errorf("Failed to generate PDF for %s: %v", req.CompanyName, err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate PDF"})
		}
		return
	}

	filename := fmt.Sprintf("%s-report.pdf", req.CompanyName)
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

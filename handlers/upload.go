package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"customereye/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// UploadReport ingests a multipart form with report metadata and one or
// more data files, and assembles the report graph. Validation failures are
// rejected before anything is persisted.
func (h *Handlers) UploadReport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid multipart form: " + err.Error()})
		return
	}

	input := models.UploadInput{
		CompanyName: c.PostForm("companyName"),
		Industry:    c.PostForm("industry"),
		Category:    c.PostForm("category"),
		Country:     c.PostForm("country"),
		Summary:     c.PostForm("summary"),
		ReportType:  strings.ToUpper(c.PostForm("reportType")),
		Language:    c.PostForm("language"),
		Logo:        c.PostForm("logo"),
		Version:     c.PostForm("version"),
	}

	if raw := c.PostForm("rating"); raw != "" {
		input.Rating, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid rating: " + raw})
			return
		}
	}
	if raw := c.PostForm("reviewCount"); raw != "" {
		input.ReviewCount, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid reviewCount: " + raw})
			return
		}
	}
	if raw := c.PostForm("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Tags); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "tags must be a JSON array of strings"})
			return
		}
	}

	for _, headers := range form.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open uploaded file " + header.Filename})
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read uploaded file " + header.Filename})
				return
			}
			input.Files = append(input.Files, models.UploadFile{
				Name: header.Filename,
				Data: data,
				Mime: header.Header.Get("Content-Type"),
			})
		}
	}

	reportID, err := h.service.AssembleReport(c.Request.Context(), input)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: validationErr.Error()})
			return
		}
		log.Errorf("Failed to assemble report for %s: %v", input.CompanyName, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to upload report"})
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{Success: true, ReportID: reportID})
}

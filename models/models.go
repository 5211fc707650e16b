package models

import (
	"errors"
	"fmt"
	"time"
)

// Report tiers
const (
	TierFree    = "FREE"
	TierPremium = "PREMIUM"
)

// Report lifecycle statuses
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
)

// File kinds
const (
	FileKindText  = "TEXT"
	FileKindImage = "IMAGE"
	FileKindPDF   = "PDF"
	FileKindJSON  = "JSON"
)

// Section types. Canonical ordering lives in the classifier tables.
const (
	SectionRatingDistribution = "RATING_DISTRIBUTION"
	SectionOverallWordcloud   = "OVERALL_WORDCLOUD"
	SectionYearlyReplies      = "YEARLY_REPLIES"
	SectionSentimentAnalysis  = "SENTIMENT_ANALYSIS"
	SectionMonthlyAnalysis    = "MONTHLY_ANALYSIS"
	SectionCommonWords        = "COMMON_WORDS"
	SectionTextCounts         = "TEXT_COUNTS"
	SectionConclusion         = "CONCLUSION"
	SectionCustomAnalysis     = "CUSTOM_ANALYSIS"
)

// Content location kinds for ReportDataFile bytes.
const (
	ContentInline     = "inline"
	ContentInlineText = "inline_text"
	ContentLocalPath  = "local_path"
	ContentObjectKey  = "object_key"
)

// ErrNotFound is returned when a report or file lookup matches nothing.
var ErrNotFound = errors.New("not found")

// ValidationError reports a missing or malformed input field. It is raised
// before any persistence happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Message)
}

// Report is the top-level record for one company's insight report.
type Report struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	CompanyName string     `json:"company_name"`
	Slug        string     `json:"slug"`
	Industry    string     `json:"industry"`
	Category    string     `json:"category,omitempty"`
	Country     string     `json:"country,omitempty"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	Summary     string     `json:"summary"`
	Tags        []string   `json:"tags"`
	ReportType  string     `json:"report_type"`
	Language    string     `json:"language,omitempty"`
	IsPaid      bool       `json:"is_paid"`
	Logo        string     `json:"logo,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ContentLocation says where a data file's bytes live. Exactly one of the
// value fields is populated, selected by Kind.
type ContentLocation struct {
	Kind      string `json:"kind"`
	Bytes     []byte `json:"-"`
	Text      string `json:"-"`
	LocalPath string `json:"local_path,omitempty"`
	ObjectKey string `json:"object_key,omitempty"`
}

// ReportDataFile is one uploaded asset attached to a report.
type ReportDataFile struct {
	ID           int             `json:"id"`
	ReportID     int             `json:"report_id"`
	FileKind     string          `json:"file_kind"`
	SectionType  string          `json:"section_type"`
	Sequence     int             `json:"sequence"`
	StoredName   string          `json:"stored_name"`
	OriginalName string          `json:"original_name"`
	Content      ContentLocation `json:"content"`
	SizeBytes    int64           `json:"size_bytes"`
	MimeType     string          `json:"mime_type"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ReportSection is a derived, ordered grouping of a report's files that
// share a section tag.
type ReportSection struct {
	ID          int    `json:"id"`
	ReportID    int    `json:"report_id"`
	SectionType string `json:"section_type"`
	Title       string `json:"title"`
	TextContent string `json:"text_content,omitempty"`
	Order       int    `json:"order"`
	FileCount   int    `json:"file_count"`
	HasImage    bool   `json:"has_image"`
	HasText     bool   `json:"has_text"`
}

// ReportDetail is the full payload for a single report page.
type ReportDetail struct {
	Report
	Files    []ReportDataFile `json:"files"`
	Sections []ReportSection  `json:"sections"`
}

// UploadFile is one incoming asset in an upload batch.
type UploadFile struct {
	Name string
	Data []byte
	Mime string
}

// UploadInput carries report metadata plus the file batch for assembly.
type UploadInput struct {
	CompanyName string
	Industry    string
	Category    string
	Country     string
	Rating      float64
	ReviewCount int
	Summary     string
	Tags        []string
	ReportType  string
	Language    string
	Logo        string
	Version     string
	Files       []UploadFile
}

// ListQuery holds the filter/sort/pagination parameters for report listing.
// Zero values mean "match everything".
type ListQuery struct {
	Industry      string
	Country       string
	Category      string
	ReportType    string
	Language      string
	Paid          *bool
	Search        string
	RatingFloor   float64
	MinRating     float64
	MaxRating     float64
	MinReviews    int
	MaxReviews    int
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
	SortBy        string
	SortOrder     string
	Page          int
	Limit         int
}

// ListResult is one page of report summaries.
type ListResult struct {
	Reports    []Report `json:"reports"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"total_pages"`
}

// Suggestion is one company-name match for the search typeahead.
type Suggestion struct {
	CompanyName string  `json:"company_name"`
	Slug        string  `json:"slug"`
	Industry    string  `json:"industry"`
	Country     string  `json:"country,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// ErrorResponse is the error body returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse acknowledges a successful report upload.
type UploadResponse struct {
	Success  bool `json:"success"`
	ReportID int  `json:"report_id"`
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"customereye/classifier"
	"customereye/models"
	"customereye/storage"
	"customereye/utils"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Text files up to this size are stored inline as text; anything larger goes
// to the object store (or inline bytes when no bucket is configured).
const inlineTextLimit = 256 * 1024

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// sortColumns whitelists the sortable listing keys.
var sortColumns = map[string]string{
	"company_name": "company_name",
	"rating":       "rating",
	"review_count": "review_count",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

// ReportService handles all report-related database operations: the upload
// assembler and the listing/detail queries.
type ReportService struct {
	db         *sql.DB
	classifier *classifier.Classifier
	store      *storage.ObjectStore
}

// NewReportService creates a new report service instance. store may be nil
// when object storage is not configured.
func NewReportService(db *sql.DB, cls *classifier.Classifier, store *storage.ObjectStore) *ReportService {
	return &ReportService{
		db:         db,
		classifier: cls,
		store:      store,
	}
}

// AssembleReport validates the upload, upserts the report record by slug,
// persists each classified file and derives the report sections, all in one
// transaction. Returns the report id.
func (s *ReportService) AssembleReport(ctx context.Context, input models.UploadInput) (int, error) {
	if err := validateUpload(input); err != nil {
		return 0, err
	}

	slug := utils.Slugify(input.CompanyName, input.Country)
	version := input.Version
	if version == "" {
		version = "v1"
	}

	// Classify and push file bytes to the object store before opening the
	// transaction; DB work should not wait on network uploads.
	records, err := s.prepareFiles(ctx, slug, version, input)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reportID, err := s.upsertReport(ctx, tx, slug, input)
	if err != nil {
		return 0, err
	}

	// Re-upload is delete+recreate for the whole file set.
	if _, err := tx.ExecContext(ctx, "DELETE FROM report_files WHERE report_id = ?", reportID); err != nil {
		return 0, fmt.Errorf("failed to clear report files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM report_sections WHERE report_id = ?", reportID); err != nil {
		return 0, fmt.Errorf("failed to clear report sections: %w", err)
	}

	for _, rec := range records {
		if err := s.insertFile(ctx, tx, reportID, rec); err != nil {
			return 0, err
		}
	}

	if err := s.insertSections(ctx, tx, reportID, records); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("slug", slug).Infof("Assembled report %d with %d files", reportID, len(records))
	return reportID, nil
}

func validateUpload(input models.UploadInput) error {
	switch {
	case strings.TrimSpace(input.CompanyName) == "":
		return &models.ValidationError{Field: "companyName", Message: "company name is required"}
	case strings.TrimSpace(input.Industry) == "":
		return &models.ValidationError{Field: "industry", Message: "industry is required"}
	case input.Rating <= 0:
		return &models.ValidationError{Field: "rating", Message: "rating must be positive"}
	case input.ReviewCount <= 0:
		return &models.ValidationError{Field: "reviewCount", Message: "review count must be positive"}
	case strings.TrimSpace(input.Summary) == "":
		return &models.ValidationError{Field: "summary", Message: "summary is required"}
	case input.ReportType != models.TierFree && input.ReportType != models.TierPremium:
		return &models.ValidationError{Field: "reportType", Message: "report type must be FREE or PREMIUM"}
	}
	return nil
}

// fileRecord is one classified file ready for insertion.
type fileRecord struct {
	cls      classifier.Classification
	stored   string
	original string
	content  models.ContentLocation
	size     int64
	mimeType string
}

func (s *ReportService) prepareFiles(ctx context.Context, slug, version string, input models.UploadInput) ([]fileRecord, error) {
	records := make([]fileRecord, 0, len(input.Files))
	for _, f := range input.Files {
		cls := s.classifier.Classify(f.Name)

		mimeType := f.Mime
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(f.Name))
		}
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		rec := fileRecord{
			cls:      cls,
			stored:   fmt.Sprintf("%s_%s", uuid.NewString()[:8], cls.NormalizedName),
			original: f.Name,
			size:     int64(len(f.Data)),
			mimeType: mimeType,
		}

		switch {
		case cls.FileKind == models.FileKindText && len(f.Data) <= inlineTextLimit:
			rec.content = models.ContentLocation{Kind: models.ContentInlineText, Text: string(f.Data)}
		case s.store != nil:
			key := storage.ObjectKey(slug, input.Country, input.ReportType, version, cls.FileCategory, cls.NormalizedName)
			if err := s.store.Upload(ctx, key, f.Data, mimeType); err != nil {
				return nil, err
			}
			rec.content = models.ContentLocation{Kind: models.ContentObjectKey, ObjectKey: key}
		default:
			rec.content = models.ContentLocation{Kind: models.ContentInline, Bytes: f.Data}
		}

		records = append(records, rec)
	}
	return records, nil
}

// upsertReport inserts or overwrites the report row keyed by its unique
// slug and forces it to PUBLISHED. The LAST_INSERT_ID(id) clause makes
// LastInsertId return the existing row's id on the update path, so
// concurrent uploads of the same slug serialize on the row lock.
func (s *ReportService) upsertReport(ctx context.Context, tx *sql.Tx, slug string, input models.UploadInput) (int, error) {
	tagsJSON, err := json.Marshal(input.Tags)
	if err != nil {
		return 0, fmt.Errorf("failed to encode tags: %w", err)
	}

	title := input.CompanyName + " Customer Insight Report"

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports
			(title, company_name, slug, industry, category, country, rating,
			 review_count, summary, tags, report_type, language, is_paid,
			 logo, status, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'PUBLISHED', NOW())
		ON DUPLICATE KEY UPDATE
			id = LAST_INSERT_ID(id),
			title = VALUES(title),
			company_name = VALUES(company_name),
			industry = VALUES(industry),
			category = VALUES(category),
			country = VALUES(country),
			rating = VALUES(rating),
			review_count = VALUES(review_count),
			summary = VALUES(summary),
			tags = VALUES(tags),
			report_type = VALUES(report_type),
			language = VALUES(language),
			is_paid = VALUES(is_paid),
			logo = VALUES(logo),
			status = 'PUBLISHED',
			published_at = NOW()`,
		title, input.CompanyName, slug, input.Industry, input.Category,
		input.Country, input.Rating, input.ReviewCount, input.Summary,
		string(tagsJSON), input.ReportType, input.Language,
		input.ReportType == models.TierPremium, input.Logo)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}
	return int(id), nil
}

func (s *ReportService) insertFile(ctx context.Context, tx *sql.Tx, reportID int, rec fileRecord) error {
	var (
		contentBytes []byte
		contentText  sql.NullString
		localPath    sql.NullString
		objectKey    sql.NullString
	)
	switch rec.content.Kind {
	case models.ContentInline:
		contentBytes = rec.content.Bytes
	case models.ContentInlineText:
		contentText = sql.NullString{String: rec.content.Text, Valid: true}
	case models.ContentLocalPath:
		localPath = sql.NullString{String: rec.content.LocalPath, Valid: true}
	case models.ContentObjectKey:
		objectKey = sql.NullString{String: rec.content.ObjectKey, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO report_files
			(report_id, file_kind, section_type, seq, stored_name,
			 original_name, content_kind, content_bytes, content_text,
			 local_path, object_key, size_bytes, mime_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reportID, rec.cls.FileKind, rec.cls.SectionType, rec.cls.Sequence,
		rec.stored, rec.original, rec.content.Kind, contentBytes, contentText,
		localPath, objectKey, rec.size, rec.mimeType)
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", rec.original, err)
	}
	return nil
}

// insertSections derives one section per distinct section tag present in
// the batch, ordered by the canonical section ordering and compacted so the
// order values of the materialized sections are contiguous from 1.
func (s *ReportService) insertSections(ctx context.Context, tx *sql.Tx, reportID int, records []fileRecord) error {
	bySection := make(map[string][]fileRecord)
	for _, rec := range records {
		bySection[rec.cls.SectionType] = append(bySection[rec.cls.SectionType], rec)
	}

	order := 0
	for _, sectionType := range s.classifier.CanonicalOrder() {
		files := bySection[sectionType]
		if len(files) == 0 {
			continue
		}
		order++

		var (
			textContent sql.NullString
			hasImage    bool
			hasText     bool
		)
		for _, f := range files {
			switch f.cls.FileKind {
			case models.FileKindImage:
				hasImage = true
			case models.FileKindText:
				hasText = true
				// Last TEXT file of the tag wins; files arrive in upload
				// order, so this is "most recently uploaded".
				if f.content.Kind == models.ContentInlineText {
					textContent = sql.NullString{String: f.content.Text, Valid: true}
				}
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_sections
				(report_id, section_type, title, text_content, display_order,
				 file_count, has_image, has_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			reportID, sectionType, s.classifier.Title(sectionType),
			textContent, order, len(files), hasImage, hasText)
		if err != nil {
			return fmt.Errorf("failed to insert section %s: %w", sectionType, err)
		}
	}
	return nil
}

// ListReports returns one page of report summaries plus the total count.
func (s *ReportService) ListReports(ctx context.Context, q models.ListQuery) (*models.ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	where, args := buildFilters(q)

	var total int
	countQuery := "SELECT COUNT(*) FROM reports" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		direction = "ASC"
	}

	query := selectReportColumns + " FROM reports" + where +
		fmt.Sprintf(" ORDER BY %s %s LIMIT ? OFFSET ?", column, direction)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}

	totalPages := (total + q.Limit - 1) / q.Limit
	return &models.ListResult{
		Reports:    reports,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}, nil
}

func buildFilters(q models.ListQuery) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}

	addEq := func(column, value string) {
		if value != "" {
			clauses = append(clauses, column+" = ?")
			args = append(args, value)
		}
	}
	addEq("industry", q.Industry)
	addEq("country", q.Country)
	addEq("category", q.Category)
	addEq("report_type", q.ReportType)
	addEq("language", q.Language)

	if q.Paid != nil {
		clauses = append(clauses, "is_paid = ?")
		args = append(args, *q.Paid)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		clauses = append(clauses,
			"(LOWER(company_name) LIKE ? OR LOWER(title) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(industry) LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if q.RatingFloor > 0 {
		clauses = append(clauses, "rating >= ?")
		args = append(args, q.RatingFloor)
	}
	if q.MinRating > 0 {
		clauses = append(clauses, "rating >= ?")
		args = append(args, q.MinRating)
	}
	if q.MaxRating > 0 {
		clauses = append(clauses, "rating <= ?")
		args = append(args, q.MaxRating)
	}
	if q.MinReviews > 0 {
		clauses = append(clauses, "review_count >= ?")
		args = append(args, q.MinReviews)
	}
	if q.MaxReviews > 0 {
		clauses = append(clauses, "review_count <= ?")
		args = append(args, q.MaxReviews)
	}
	addTime := func(column, op string, t *time.Time) {
		if t != nil {
			clauses = append(clauses, column+" "+op+" ?")
			args = append(args, *t)
		}
	}
	addTime("created_at", ">=", q.CreatedAfter)
	addTime("created_at", "<=", q.CreatedBefore)
	addTime("updated_at", ">=", q.UpdatedAfter)
	addTime("updated_at", "<=", q.UpdatedBefore)

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const selectReportColumns = `SELECT id, title, company_name, slug, industry,
	COALESCE(category, ''), COALESCE(country, ''), rating, review_count,
	COALESCE(summary, ''), COALESCE(tags, '[]'), report_type,
	COALESCE(language, ''), is_paid, COALESCE(logo, ''), status,
	created_at, updated_at, published_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r           models.Report
		tagsJSON    string
		publishedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Title, &r.CompanyName, &r.Slug, &r.Industry,
		&r.Category, &r.Country, &r.Rating, &r.ReviewCount, &r.Summary,
		&tagsJSON, &r.ReportType, &r.Language, &r.IsPaid, &r.Logo, &r.Status,
		&r.CreatedAt, &r.UpdatedAt, &publishedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	if publishedAt.Valid {
		r.PublishedAt = &publishedAt.Time
	}
	if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
		r.Tags = []string{}
	}
	return &r, nil
}

// GetReport resolves an identifier that may be a numeric id or a slug and
// returns the full detail payload. Id lookup is tried first, slug second;
// models.ErrNotFound when neither matches.
func (s *ReportService) GetReport(ctx context.Context, idOrSlug string) (*models.ReportDetail, error) {
	var (
		report *models.Report
		err    error
	)
	if id, convErr := strconv.Atoi(idOrSlug); convErr == nil {
		report, err = s.getReportWhere(ctx, "id = ?", id)
		if err != nil && err != models.ErrNotFound {
			return nil, err
		}
	}
	if report == nil {
		report, err = s.getReportWhere(ctx, "slug = ?", idOrSlug)
		if err != nil {
			return nil, err
		}
	}

	files, err := s.getFiles(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	sections, err := s.getSections(ctx, report.ID)
	if err != nil {
		return nil, err
	}

	return &models.ReportDetail{Report: *report, Files: files, Sections: sections}, nil
}

// GetReportByCompany resolves a report for the PDF pipeline from a raw
// company name, matching on the derived slug first and the stored name as a
// fallback.
func (s *ReportService) GetReportByCompany(ctx context.Context, companyName string) (*models.Report, error) {
	report, err := s.getReportWhere(ctx, "slug = ?", utils.Slugify(companyName, ""))
	if err == models.ErrNotFound {
		return s.getReportWhere(ctx, "company_name = ?", companyName)
	}
	return report, err
}

func (s *ReportService) getReportWhere(ctx context.Context, condition string, arg interface{}) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, selectReportColumns+" FROM reports WHERE "+condition, arg)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

func (s *ReportService) getFiles(ctx context.Context, reportID int) ([]models.ReportDataFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_id, file_kind, section_type, seq, stored_name,
			original_name, content_kind, COALESCE(local_path, ''),
			COALESCE(object_key, ''), size_bytes, COALESCE(mime_type, ''),
			created_at
		FROM report_files WHERE report_id = ? ORDER BY seq ASC, id ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report files: %w", err)
	}
	defer rows.Close()

	files := []models.ReportDataFile{}
	for rows.Next() {
		var f models.ReportDataFile
		err := rows.Scan(&f.ID, &f.ReportID, &f.FileKind, &f.SectionType,
			&f.Sequence, &f.StoredName, &f.OriginalName, &f.Content.Kind,
			&f.Content.LocalPath, &f.Content.ObjectKey, &f.SizeBytes,
			&f.MimeType, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *ReportService) getSections(ctx context.Context, reportID int) ([]models.ReportSection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_id, section_type, title, COALESCE(text_content, ''),
			display_order, file_count, has_image, has_text
		FROM report_sections WHERE report_id = ? ORDER BY display_order ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report sections: %w", err)
	}
	defer rows.Close()

	sections := []models.ReportSection{}
	for rows.Next() {
		var sec models.ReportSection
		err := rows.Scan(&sec.ID, &sec.ReportID, &sec.SectionType, &sec.Title,
			&sec.TextContent, &sec.Order, &sec.FileCount, &sec.HasImage, &sec.HasText)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// GetFile loads a single data file with its content columns, for serving.
func (s *ReportService) GetFile(ctx context.Context, id int) (*models.ReportDataFile, error) {
	var (
		f           models.ReportDataFile
		contentText sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, report_id, file_kind, section_type, seq, stored_name,
			original_name, content_kind, content_bytes, content_text,
			COALESCE(local_path, ''), COALESCE(object_key, ''), size_bytes,
			COALESCE(mime_type, ''), created_at
		FROM report_files WHERE id = ?`, id).Scan(
		&f.ID, &f.ReportID, &f.FileKind, &f.SectionType, &f.Sequence,
		&f.StoredName, &f.OriginalName, &f.Content.Kind, &f.Content.Bytes,
		&contentText, &f.Content.LocalPath, &f.Content.ObjectKey,
		&f.SizeBytes, &f.MimeType, &f.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query file %d: %w", id, err)
	}
	f.Content.Text = contentText.String
	return &f, nil
}

// GetIndustries returns the distinct industries across published reports.
func (s *ReportService) GetIndustries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT industry FROM reports WHERE industry != '' ORDER BY industry ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query industries: %w", err)
	}
	defer rows.Close()

	industries := []string{}
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, fmt.Errorf("failed to scan industry: %w", err)
		}
		industries = append(industries, industry)
	}
	return industries, rows.Err()
}

// SearchSuggestions returns up to limit company-name matches for the
// typeahead. Queries shorter than two characters yield no suggestions.
func (s *ReportService) SearchSuggestions(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []models.Suggestion{}, nil
	}
	if limit <= 0 {
		limit = 6
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT company_name, slug, industry, COALESCE(country, ''), rating, review_count
		FROM reports WHERE LOWER(company_name) LIKE ?
		ORDER BY review_count DESC LIMIT ?`,
		"%"+strings.ToLower(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := []models.Suggestion{}
	for rows.Next() {
		var sug models.Suggestion
		err := rows.Scan(&sug.CompanyName, &sug.Slug, &sug.Industry,
			&sug.Country, &sug.Rating, &sug.ReviewCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, sug)
	}
	return suggestions, rows.Err()
}

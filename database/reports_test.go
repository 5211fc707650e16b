package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"customereye/classifier"
	"customereye/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func testService() *ReportService {
	return NewReportService(db, classifier.New(classifier.DefaultTables()), nil)
}

func validInput() models.UploadInput {
	return models.UploadInput{
		CompanyName: "Acme Co",
		Industry:    "Business Services",
		Rating:      4.3,
		ReviewCount: 10,
		Summary:     "Great.",
		ReportType:  models.TierFree,
		Files: []models.UploadFile{
			{Name: "1_rating_distribution.txt", Data: []byte("Ratings skew positive.")},
			{Name: "2_wordcloud.png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
		},
	}
}

func TestAssembleReport(t *testing.T) {
	it(func() {
		svc := testService()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports").
			WithArgs(sqlmock.AnyArg(), "Acme Co", "acme-co", "Business Services",
				sqlmock.AnyArg(), sqlmock.AnyArg(), 4.3, 10, "Great.",
				sqlmock.AnyArg(), "FREE", sqlmock.AnyArg(), false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec("DELETE FROM report_files").WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM report_sections").WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO report_files").
			WithArgs(7, "TEXT", models.SectionRatingDistribution, 1, sqlmock.AnyArg(),
				"1_rating_distribution.txt", models.ContentInlineText, sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO report_files").
			WithArgs(7, "IMAGE", models.SectionOverallWordcloud, 2, sqlmock.AnyArg(),
				"2_wordcloud.png", models.ContentInline, sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(2, 1))
		// Sections derive in canonical order with compacted order values.
		mock.ExpectExec("INSERT INTO report_sections").
			WithArgs(7, models.SectionRatingDistribution, "Rating Distribution",
				"Ratings skew positive.", 1, 1, false, true).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO report_sections").
			WithArgs(7, models.SectionOverallWordcloud, "Overall Word Cloud",
				nil, 2, 1, true, false).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		reportID, err := svc.AssembleReport(context.Background(), validInput())
		if err != nil {
			t.Fatalf("AssembleReport failed: %v", err)
		}
		if reportID != 7 {
			t.Errorf("reportID = %d, want 7", reportID)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestAssembleReport_SectionOrderIgnoresUploadOrder(t *testing.T) {
	it(func() {
		svc := testService()

		// Conclusion uploaded before rating distribution; derived sections
		// still come out in canonical order.
		input := validInput()
		input.Files = []models.UploadFile{
			{Name: "notes_conclusion.txt", Data: []byte("Done.")},
			{Name: "1_rating_distribution.png", Data: []byte{0x89}},
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectExec("DELETE FROM report_files").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM report_sections").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO report_files").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO report_files").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectExec("INSERT INTO report_sections").
			WithArgs(3, models.SectionRatingDistribution, "Rating Distribution",
				nil, 1, 1, true, false).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO report_sections").
			WithArgs(3, models.SectionConclusion, "Conclusion",
				"Done.", 2, 1, false, true).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		if _, err := svc.AssembleReport(context.Background(), input); err != nil {
			t.Fatalf("AssembleReport failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestAssembleReport_Validation(t *testing.T) {
	it(func() {
		svc := testService()

		tests := []struct {
			name        string
			mutate      func(*models.UploadInput)
			expectField string
		}{
			{"missing company", func(in *models.UploadInput) { in.CompanyName = "" }, "companyName"},
			{"missing industry", func(in *models.UploadInput) { in.Industry = "" }, "industry"},
			{"zero rating", func(in *models.UploadInput) { in.Rating = 0 }, "rating"},
			{"zero reviews", func(in *models.UploadInput) { in.ReviewCount = 0 }, "reviewCount"},
			{"missing summary", func(in *models.UploadInput) { in.Summary = "  " }, "summary"},
			{"bad report type", func(in *models.UploadInput) { in.ReportType = "GOLD" }, "reportType"},
		}

		for _, tt := range tests {
			input := validInput()
			tt.mutate(&input)

			_, err := svc.AssembleReport(context.Background(), input)
			var validationErr *models.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("%s: expected validation error, got %v", tt.name, err)
				continue
			}
			if validationErr.Field != tt.expectField {
				t.Errorf("%s: field = %s, want %s", tt.name, validationErr.Field, tt.expectField)
			}
		}

		// Validation failures never touch the database.
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected database activity: %v", err)
		}
	})
}

func reportColumns() []string {
	return []string{"id", "title", "company_name", "slug", "industry", "category",
		"country", "rating", "review_count", "summary", "tags", "report_type",
		"language", "is_paid", "logo", "status", "created_at", "updated_at",
		"published_at"}
}

func addReportRow(rows *sqlmock.Rows, id int, company, slug string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, company+" Customer Insight Report", company, slug,
		"Business Services", "", "", 4.3, 10, "Great.", `["fast"]`, "FREE",
		"en", false, "", "PUBLISHED", now, now, now)
}

func TestListReports_Pagination(t *testing.T) {
	it(func() {
		svc := testService()

		// total=25, limit=10: page 3 carries the last 5 summaries.
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		rows := sqlmock.NewRows(reportColumns())
		for i := 21; i <= 25; i++ {
			addReportRow(rows, i, "Company", "company")
		}
		mock.ExpectQuery("SELECT id, title, company_name").
			WithArgs(10, 20).
			WillReturnRows(rows)

		result, err := svc.ListReports(context.Background(), models.ListQuery{Page: 3, Limit: 10})
		if err != nil {
			t.Fatalf("ListReports failed: %v", err)
		}
		if result.Total != 25 {
			t.Errorf("Total = %d, want 25", result.Total)
		}
		if result.TotalPages != 3 {
			t.Errorf("TotalPages = %d, want 3", result.TotalPages)
		}
		if len(result.Reports) != 5 {
			t.Errorf("len(Reports) = %d, want 5", len(result.Reports))
		}
	})
}

func TestListReports_PageBeyondEnd(t *testing.T) {
	it(func() {
		svc := testService()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery("SELECT id, title, company_name").
			WithArgs(10, 30).
			WillReturnRows(sqlmock.NewRows(reportColumns()))

		result, err := svc.ListReports(context.Background(), models.ListQuery{Page: 4, Limit: 10})
		if err != nil {
			t.Fatalf("ListReports failed: %v", err)
		}
		if len(result.Reports) != 0 {
			t.Errorf("len(Reports) = %d, want 0", len(result.Reports))
		}
	})
}

func TestListReports_Filters(t *testing.T) {
	it(func() {
		svc := testService()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports")).
			WithArgs("Business Services", "FREE").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		rows := addReportRow(sqlmock.NewRows(reportColumns()), 1, "Acme Co", "acme-co")
		mock.ExpectQuery("SELECT id, title, company_name").
			WithArgs("Business Services", "FREE", 10, 0).
			WillReturnRows(rows)

		result, err := svc.ListReports(context.Background(), models.ListQuery{
			Industry:   "Business Services",
			ReportType: models.TierFree,
		})
		if err != nil {
			t.Fatalf("ListReports failed: %v", err)
		}
		if len(result.Reports) != 1 || result.Reports[0].Slug != "acme-co" {
			t.Errorf("unexpected result: %+v", result.Reports)
		}
	})
}

func TestGetReport_SlugFallback(t *testing.T) {
	it(func() {
		svc := testService()

		// Numeric identifier misses by id, then resolves by slug.
		mock.ExpectQuery("FROM reports WHERE id").WithArgs(123).
			WillReturnError(sql.ErrNoRows)
		rows := addReportRow(sqlmock.NewRows(reportColumns()), 5, "Acme Co", "123")
		mock.ExpectQuery("FROM reports WHERE slug").WithArgs("123").
			WillReturnRows(rows)
		mock.ExpectQuery("FROM report_files").WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "file_kind",
				"section_type", "seq", "stored_name", "original_name", "content_kind",
				"local_path", "object_key", "size_bytes", "mime_type", "created_at"}))
		mock.ExpectQuery("FROM report_sections").WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "section_type",
				"title", "text_content", "display_order", "file_count", "has_image",
				"has_text"}))

		detail, err := svc.GetReport(context.Background(), "123")
		if err != nil {
			t.Fatalf("GetReport failed: %v", err)
		}
		if detail.ID != 5 {
			t.Errorf("ID = %d, want 5", detail.ID)
		}
	})
}

func TestGetReport_NotFound(t *testing.T) {
	it(func() {
		svc := testService()

		mock.ExpectQuery("FROM reports WHERE slug").WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := svc.GetReport(context.Background(), "nope")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestGetIndustries(t *testing.T) {
	it(func() {
		svc := testService()

		mock.ExpectQuery("SELECT DISTINCT industry").
			WillReturnRows(sqlmock.NewRows([]string{"industry"}).
				AddRow("Business Services").AddRow("Retail"))

		industries, err := svc.GetIndustries(context.Background())
		if err != nil {
			t.Fatalf("GetIndustries failed: %v", err)
		}
		if len(industries) != 2 || industries[0] != "Business Services" {
			t.Errorf("unexpected industries: %v", industries)
		}
	})
}

func TestSearchSuggestions_ShortQuery(t *testing.T) {
	it(func() {
		svc := testService()

		// Below two characters nothing is queried.
		suggestions, err := svc.SearchSuggestions(context.Background(), "a", 6)
		if err != nil {
			t.Fatalf("SearchSuggestions failed: %v", err)
		}
		if len(suggestions) != 0 {
			t.Errorf("expected no suggestions, got %v", suggestions)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected database activity: %v", err)
		}
	})
}

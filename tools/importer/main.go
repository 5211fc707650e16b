// Importer is the batch entry point for loading report data from disk: one
// YAML manifest describing the companies, one directory tree holding their
// data files. Re-running it is safe; reports upsert by slug.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"customereye/classifier"
	"customereye/config"
	"customereye/database"
	"customereye/models"
	"customereye/storage"
	"customereye/utils"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

type manifest struct {
	Companies []companyEntry `yaml:"companies"`
}

type companyEntry struct {
	Company     string   `yaml:"company"`
	Industry    string   `yaml:"industry"`
	Category    string   `yaml:"category"`
	Country     string   `yaml:"country"`
	Rating      float64  `yaml:"rating"`
	ReviewCount int      `yaml:"review_count"`
	Summary     string   `yaml:"summary"`
	Tags        []string `yaml:"tags"`
	ReportType  string   `yaml:"report_type"`
	Language    string   `yaml:"language"`
	Logo        string   `yaml:"logo"`
	// Dir is the subdirectory under the data root holding this company's
	// files; defaults to the company's slug.
	Dir string `yaml:"dir"`
}

func main() {
	manifestPath := flag.String("manifest", "companies.yaml", "path to the company manifest")
	dataDir := flag.String("dir", ".", "root directory containing per-company data files")
	version := flag.String("version", "v1", "report version used in object storage keys")
	flag.Parse()

	m, err := loadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	cfg := config.Load()
	db, err := utils.DBConnect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	service := database.NewReportService(db, classifier.New(classifier.DefaultTables()), store)

	ctx := context.Background()
	failed := 0
	for _, entry := range m.Companies {
		if err := importCompany(ctx, service, *dataDir, *version, entry); err != nil {
			log.WithField("company", entry.Company).Errorf("Import failed: %v", err)
			failed++
		}
	}

	log.Infof("Imported %d/%d companies", len(m.Companies)-failed, len(m.Companies))
	if failed > 0 {
		os.Exit(1)
	}
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func importCompany(ctx context.Context, service *database.ReportService, dataDir, version string, entry companyEntry) error {
	dir := entry.Dir
	if dir == "" {
		dir = utils.Slugify(entry.Company, entry.Country)
	}

	files, err := readCompanyFiles(filepath.Join(dataDir, dir))
	if err != nil {
		return err
	}

	reportType := entry.ReportType
	if reportType == "" {
		reportType = models.TierFree
	}

	reportID, err := service.AssembleReport(ctx, models.UploadInput{
		CompanyName: entry.Company,
		Industry:    entry.Industry,
		Category:    entry.Category,
		Country:     entry.Country,
		Rating:      entry.Rating,
		ReviewCount: entry.ReviewCount,
		Summary:     entry.Summary,
		Tags:        entry.Tags,
		ReportType:  reportType,
		Language:    entry.Language,
		Logo:        entry.Logo,
		Version:     version,
		Files:       files,
	})
	if err != nil {
		return err
	}

	log.WithField("company", entry.Company).Infof("Imported report %d with %d files", reportID, len(files))
	return nil
}

func readCompanyFiles(dir string) ([]models.UploadFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]models.UploadFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, models.UploadFile{Name: entry.Name(), Data: data})
	}
	return files, nil
}

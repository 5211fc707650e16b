package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist
func InitSchema(db *sql.DB) error {
	log.Info("Initializing customereye database schema...")

	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS reports(
		id INT NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		company_name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		industry VARCHAR(255) NOT NULL,
		category VARCHAR(255),
		country VARCHAR(8),
		rating DOUBLE NOT NULL DEFAULT 0,
		review_count INT NOT NULL DEFAULT 0,
		summary TEXT,
		tags JSON,
		report_type ENUM('FREE', 'PREMIUM') NOT NULL DEFAULT 'FREE',
		language VARCHAR(8),
		is_paid BOOL NOT NULL DEFAULT false,
		logo VARCHAR(255),
		status ENUM('DRAFT', 'PUBLISHED') NOT NULL DEFAULT 'DRAFT',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		published_at TIMESTAMP NULL,
		PRIMARY KEY (id),
		UNIQUE INDEX slug_index (slug),
		INDEX industry_index (industry),
		INDEX country_index (country),
		INDEX status_index (status)
	)`

	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	log.Info("Reports table created/verified")

	reportFilesTableSQL := `
	CREATE TABLE IF NOT EXISTS report_files(
		id INT NOT NULL AUTO_INCREMENT,
		report_id INT NOT NULL,
		file_kind ENUM('TEXT', 'IMAGE', 'PDF', 'JSON') NOT NULL DEFAULT 'TEXT',
		section_type VARCHAR(64) NOT NULL,
		seq INT NOT NULL DEFAULT 999,
		stored_name VARCHAR(255) NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		content_kind ENUM('inline', 'inline_text', 'local_path', 'object_key') NOT NULL,
		content_bytes LONGBLOB,
		content_text LONGTEXT,
		local_path VARCHAR(512),
		object_key VARCHAR(512),
		size_bytes BIGINT NOT NULL DEFAULT 0,
		mime_type VARCHAR(128),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX report_id_index (report_id),
		INDEX section_type_index (section_type),
		CONSTRAINT fk_report_files_report FOREIGN KEY (report_id)
			REFERENCES reports (id) ON DELETE CASCADE
	)`

	if _, err := db.Exec(reportFilesTableSQL); err != nil {
		return fmt.Errorf("failed to create report_files table: %w", err)
	}
	log.Info("Report_files table created/verified")

	reportSectionsTableSQL := `
	CREATE TABLE IF NOT EXISTS report_sections(
		id INT NOT NULL AUTO_INCREMENT,
		report_id INT NOT NULL,
		section_type VARCHAR(64) NOT NULL,
		title VARCHAR(255) NOT NULL,
		text_content LONGTEXT,
		display_order INT NOT NULL,
		file_count INT NOT NULL DEFAULT 0,
		has_image BOOL NOT NULL DEFAULT false,
		has_text BOOL NOT NULL DEFAULT false,
		PRIMARY KEY (id),
		INDEX report_id_index (report_id),
		CONSTRAINT fk_report_sections_report FOREIGN KEY (report_id)
			REFERENCES reports (id) ON DELETE CASCADE
	)`

	if _, err := db.Exec(reportSectionsTableSQL); err != nil {
		return fmt.Errorf("failed to create report_sections table: %w", err)
	}
	log.Info("Report_sections table created/verified")

	return nil
}

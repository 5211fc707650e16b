package main

import (
	"customereye/classifier"
	"customereye/config"
	"customereye/database"
	"customereye/handlers"
	"customereye/middleware"
	"customereye/pdf"
	"customereye/storage"
	"customereye/utils"
	"customereye/version"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const (
	EndPointHealth       = "/health"
	EndPointVersion      = "/version"
	EndPointReports      = "/reports"
	EndPointReportDetail = "/reports/:idOrSlug"
	EndPointUpload       = "/reports/upload"
	EndPointFile         = "/files/:id"
	EndPointIndustries   = "/industries"
	EndPointSuggestions  = "/search/suggestions"
	EndPointPDFNavigate  = "/pdf/report"
	EndPointPDFRendered  = "/generate-pdf"
)

func main() {
	cfg := config.Load()

	log.Info("Starting the customereye service...")

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

	cls := classifier.New(classifier.DefaultTables())
	reportService := database.NewReportService(db, cls, store)
	exporter := pdf.NewExporter(reportService, cfg.BaseURL,
		time.Duration(cfg.PDFNavTimeoutSeconds)*time.Second,
		time.Duration(cfg.PDFSettleDelayMs)*time.Millisecond)

	h := handlers.NewHandlers(reportService, store, exporter)

	router := gin.Default()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatalf("Failed to set trusted proxies: %v", err)
	}
	router.Use(middleware.CORSMiddleware())

	router.GET(EndPointHealth, h.HealthCheck)
	router.GET(EndPointVersion, func(c *gin.Context) {
		c.JSON(200, version.Get("customereye"))
	})
	router.GET(EndPointReports, h.ListReports)
	router.GET(EndPointReportDetail, h.GetReport)
	router.GET(EndPointFile, h.GetFile)
	router.GET(EndPointIndustries, h.GetIndustries)
	router.GET(EndPointSuggestions, h.SearchSuggestions)
	router.POST(EndPointPDFNavigate, h.GeneratePDFNavigate)
	router.POST(EndPointPDFRendered, h.GeneratePDFRendered)

	admin := router.Group("/")
	admin.Use(middleware.AuthMiddleware(cfg.AuthSecret))
	admin.POST(EndPointUpload, h.UploadReport)

	log.Infof("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

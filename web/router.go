package web

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/importer"
	"github.com/deemkeen/trunk/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxImportBytes caps an uploaded archive at 64MB
const maxImportBytes = 64 * 1024 * 1024

// Exporter produces account archives
type Exporter interface {
	ExportData(actorId uuid.UUID) (io.ReadCloser, error)
	ExportDataLive(actorId uuid.UUID) (io.ReadCloser, error)
}

// Importer merges account archives
type Importer interface {
	ImportDataWithOptions(actorId uuid.UUID, r io.Reader, opts importer.ImportOptions) (*importer.ImportResult, error)
}

// Router builds the HTTP surface: archive export and import plus a
// health probe. The caller mounts the engine on its own server.
func Router(conf *util.AppConfig, exp Exporter, imp Importer) *gin.Engine {
	// Set Gin to use the same log writer as the rest of the application
	gin.DefaultWriter = util.GetLogWriter()
	gin.DefaultErrorWriter = util.GetLogWriter()

	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Imports are expensive, so they get a stricter budget
	importLimiter := NewRateLimiter(rate.Limit(1), 3)

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": util.GetVersion()})
	})

	g.GET("/api/v1/accounts/:actorId/export", func(c *gin.Context) {
		handleExport(c, exp)
	})

	g.POST("/api/v1/accounts/:actorId/import",
		RateLimitMiddleware(importLimiter),
		MaxBytesMiddleware(maxImportBytes),
		func(c *gin.Context) {
			handleImport(c, imp)
		})

	return g
}

func handleExport(c *gin.Context, exp Exporter) {
	actorId, err := uuid.Parse(c.Param("actorId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid account id"})
		return
	}

	var stream io.ReadCloser
	if c.Query("live") == "1" {
		stream, err = exp.ExportDataLive(actorId)
	} else {
		stream, err = exp.ExportData(actorId)
	}
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		log.Printf("Export: request for %s failed: %v", actorId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "application/x-tar")
	c.Header("Content-Disposition", `attachment; filename="account_export_`+actorId.String()+`.tar"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		log.Printf("Export: streaming for %s aborted: %v", actorId, err)
	}
}

func handleImport(c *gin.Context, imp Importer) {
	actorId, err := uuid.Parse(c.Param("actorId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid account id"})
		return
	}

	opts := importer.ImportOptions{Sections: parseSections(c.Query("sections"))}
	result, err := imp.ImportDataWithOptions(actorId, c.Request.Body, opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArchive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid archive"})
		case errors.Is(err, domain.ErrOwnerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no local account to migrate"})
		case errors.Is(err, domain.ErrIdentityMismatch):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "archive identity is unusable"})
		default:
			log.Printf("Import: request for %s failed: %v", actorId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		}
		return
	}

	sections := gin.H{}
	for section, res := range result.Sections {
		sections[string(section)] = gin.H{"imported": res.Imported, "skipped": res.Skipped}
	}
	c.JSON(http.StatusOK, gin.H{
		"accountId": result.AccountId.String(),
		"sections":  sections,
	})
}

// parseSections reads a comma separated section filter. An empty
// filter means all sections.
func parseSections(raw string) map[importer.Section]bool {
	if raw == "" {
		return nil
	}
	sections := make(map[importer.Section]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		sections[importer.Section(name)] = true
	}
	if len(sections) == 0 {
		return nil
	}
	return sections
}

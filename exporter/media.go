package exporter

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/deemkeen/trunk/domain"
)

// Media blobs larger than this are skipped
const maxMediaBytes = 50 * 1024 * 1024

type mediaBlob struct {
	Filename string
	Data     []byte
}

// downloadMedia fetches every attachment through a bounded worker
// pool. A failed download is logged and skipped; the export never
// fails over media.
func (e *AccountExporter) downloadMedia(attachments []domain.MediaAttachment) []mediaBlob {
	if len(attachments) == 0 {
		return nil
	}

	workers := e.conf.Conf.MediaWorkers
	if workers < 1 {
		workers = 4
	}

	var (
		mu    sync.Mutex
		blobs []mediaBlob
		wg    sync.WaitGroup
		sem   = make(chan struct{}, workers)
	)

	for _, att := range attachments {
		wg.Add(1)
		sem <- struct{}{}
		go func(att domain.MediaAttachment) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := e.fetchBlob(att.URL)
			if err != nil {
				log.Printf("Export: skipping media %s: %v", att.URL, err)
				return
			}

			mu.Lock()
			blobs = append(blobs, mediaBlob{Filename: mediaFilename(&att), Data: data})
			mu.Unlock()
		}(att)
	}
	wg.Wait()

	return blobs
}

func (e *AccountExporter) fetchBlob(url string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("larger than %d bytes", maxMediaBytes)
	}
	return data, nil
}

// mediaFilename names a blob after its attachment id, keeping the
// original extension when there is one
func mediaFilename(att *domain.MediaAttachment) string {
	ext := path.Ext(att.URL)
	if idx := strings.IndexAny(ext, "?#"); idx >= 0 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 8 {
		ext = extensionFor(att.ContentType)
	}
	return att.Id.String() + ext
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}

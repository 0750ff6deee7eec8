package web

import (
	"archive/tar"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/importer"
	"github.com/deemkeen/trunk/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type mockExporter struct {
	data      []byte
	err       error
	liveCalls int
}

func (m *mockExporter) ExportData(actorId uuid.UUID) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *mockExporter) ExportDataLive(actorId uuid.UUID) (io.ReadCloser, error) {
	m.liveCalls++
	return m.ExportData(actorId)
}

type mockImporter struct {
	result *importer.ImportResult
	err    error

	gotActor    uuid.UUID
	gotSections map[importer.Section]bool
}

func (m *mockImporter) ImportDataWithOptions(actorId uuid.UUID, r io.Reader, opts importer.ImportOptions) (*importer.ImportResult, error) {
	m.gotActor = actorId
	m.gotSections = opts.Sections
	io.Copy(io.Discard, r)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func testRouter(exp Exporter, imp Importer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	conf := &util.AppConfig{Conf: util.Conf{SslDomain: "trunk.example.com"}}
	return Router(conf, exp, imp)
}

func tarBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	data := []byte(`{"type":"Person"}`)
	tw.WriteHeader(&tar.Header{Name: "actor.json", Mode: 0o644, Size: int64(len(data))})
	tw.Write(data)
	if err := tw.Close(); err != nil {
		t.Fatalf("building tar fixture: %v", err)
	}
	return buf.Bytes()
}

func TestHealthz(t *testing.T) {
	g := testRouter(&mockExporter{}, &mockImporter{})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestExportStreamsArchive(t *testing.T) {
	data := tarBytes(t)
	exp := &mockExporter{data: data}
	g := testRouter(exp, &mockImporter{})

	actorId := uuid.New()
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/accounts/"+actorId.String()+"/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-tar" {
		t.Errorf("content type = %s", ct)
	}
	want := `attachment; filename="account_export_` + actorId.String() + `.tar"`
	if cd := w.Header().Get("Content-Disposition"); cd != want {
		t.Errorf("content disposition = %s, want %s", cd, want)
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Error("archive bytes corrupted in transit")
	}
	if exp.liveCalls != 0 {
		t.Error("live capture used without ?live=1")
	}
}

func TestExportLiveFlag(t *testing.T) {
	exp := &mockExporter{data: tarBytes(t)}
	g := testRouter(exp, &mockImporter{})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/accounts/"+uuid.NewString()+"/export?live=1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if exp.liveCalls != 1 {
		t.Errorf("live calls = %d, want 1", exp.liveCalls)
	}
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name       string
		actorId    string
		err        error
		wantStatus int
	}{
		{"unknown account", uuid.NewString(), domain.ErrAccountNotFound, http.StatusNotFound},
		{"malformed id", "not-a-uuid", nil, http.StatusNotFound},
		{"internal failure", uuid.NewString(), io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testRouter(&mockExporter{err: tt.err}, &mockImporter{})
			w := httptest.NewRecorder()
			g.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/accounts/"+tt.actorId+"/export", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestImportReturnsSectionCounts(t *testing.T) {
	accountId := uuid.New()
	imp := &mockImporter{result: &importer.ImportResult{
		AccountId: accountId,
		Sections: map[importer.Section]importer.SectionResult{
			importer.SectionActor:  {Imported: 1},
			importer.SectionOutbox: {Imported: 5, Skipped: 2},
		},
	}}
	g := testRouter(&mockExporter{}, imp)

	actorId := uuid.New()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/accounts/"+actorId.String()+"/import", bytes.NewReader(tarBytes(t)))
	g.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if imp.gotActor != actorId {
		t.Errorf("importer called with %s, want %s", imp.gotActor, actorId)
	}
	if imp.gotSections != nil {
		t.Errorf("sections filter should default to nil, got %v", imp.gotSections)
	}
	body := w.Body.String()
	if !strings.Contains(body, accountId.String()) {
		t.Errorf("response misses the final account id: %s", body)
	}
	if !strings.Contains(body, `"imported":5`) || !strings.Contains(body, `"skipped":2`) {
		t.Errorf("section counts missing: %s", body)
	}
}

func TestImportSectionFilter(t *testing.T) {
	imp := &mockImporter{result: &importer.ImportResult{AccountId: uuid.New()}}
	g := testRouter(&mockExporter{}, imp)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST",
		"/api/v1/accounts/"+uuid.NewString()+"/import?sections=outbox,likes",
		bytes.NewReader(tarBytes(t)))
	g.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(imp.gotSections) != 2 || !imp.gotSections[importer.SectionOutbox] || !imp.gotSections[importer.SectionLikes] {
		t.Errorf("sections filter = %v", imp.gotSections)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"broken archive", domain.ErrInvalidArchive, http.StatusBadRequest},
		{"no local owner", domain.ErrOwnerNotFound, http.StatusNotFound},
		{"unusable identity", domain.ErrIdentityMismatch, http.StatusUnprocessableEntity},
		{"internal failure", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testRouter(&mockExporter{}, &mockImporter{err: tt.err})
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/v1/accounts/"+uuid.NewString()+"/import", bytes.NewReader(tarBytes(t)))
			g.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestParseSections(t *testing.T) {
	if parseSections("") != nil {
		t.Error("empty filter should be nil")
	}
	if parseSections(" , ") != nil {
		t.Error("blank filter should be nil")
	}
	got := parseSections("outbox, mutes")
	if len(got) != 2 || !got[importer.SectionOutbox] || !got[importer.SectionMutes] {
		t.Errorf("parseSections = %v", got)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/ai/mock"
	"github.com/poiesic/commandcore/chunk"
	"github.com/poiesic/commandcore/extract"
	"github.com/poiesic/commandcore/ingestion"
	"github.com/poiesic/commandcore/jobs"
	"github.com/poiesic/commandcore/retrieval"
	storagebadger "github.com/poiesic/commandcore/storage/badger"
)

const testDims = 8

// wordTokenizer treats each word as one token, keeping chunk geometry
// predictable without the tiktoken vocabulary.
type wordTokenizer struct {
	words []string
}

func (w *wordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	base := len(w.words)
	w.words = append(w.words, fields...)
	for i := range fields {
		tokens[i] = base + i
	}
	return tokens
}

func (w *wordTokenizer) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = w.words[tok]
	}
	return strings.Join(parts, " ")
}

type testServer struct {
	handler   http.Handler
	tracker   *jobs.Tracker
	embedder  *mock.MockEmbedder
	generator *mock.MockGenerator
}

func newTestServer(t *testing.T, opts ...func(*ServerConfig)) *testServer {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	chunker, err := chunk.New(&wordTokenizer{}, 20, 5)
	require.NoError(t, err)

	mockEmbedder := mock.NewMockEmbedder()
	mockEmbedder.Dimensions = testDims
	mockGenerator := mock.NewMockGenerator()

	tracker := jobs.NewTracker(nil)

	ingestPipeline, err := ingestion.NewPipeline(
		repo,
		extract.NewRegistry(),
		chunker,
		ai.NewFallbackEmbedder(mockEmbedder, testDims, nil),
		tracker,
		ingestion.WithPoolSize(2),
	)
	require.NoError(t, err)
	t.Cleanup(ingestPipeline.Release)

	retrievePipeline, err := retrieval.NewPipeline(repo,
		ai.NewFallbackEmbedder(mockEmbedder, testDims, nil), mockGenerator)
	require.NoError(t, err)

	cfg := ServerConfig{
		Ingestion: ingestPipeline,
		Retrieval: retrievePipeline,
		Tracker:   tracker,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	server, err := NewServer(cfg)
	require.NoError(t, err)

	return &testServer{
		handler:   server.Handler(),
		tracker:   tracker,
		embedder:  mockEmbedder,
		generator: mockGenerator,
	}
}

// multipartUpload builds a document upload request body.
func multipartUpload(t *testing.T, fileName, content, domain, sourceInfo string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	if domain != "" {
		require.NoError(t, mw.WriteField("domain", domain))
	}
	if sourceInfo != "" {
		require.NoError(t, mw.WriteField("source_info", sourceInfo))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validSourceInfoJSON() string {
	return `{"title":"Scheduler Deep Dive","author":"P. Novak","publication_date":"2025-04-22"}`
}

func docWords(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "response has no error envelope: %s", rec.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

func TestUploadAcceptsDocument(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartUpload(t, "scheduler.txt", docWords(50), "virt-os", validSourceInfoJSON())
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decodeBody(t, rec)
	assert.Equal(t, "processing", resp["status"])

	jobID, err := uuid.Parse(resp["job_id"].(string))
	require.NoError(t, err)

	// The job runs async; poll status until terminal.
	var statusBody map[string]any
	require.Eventually(t, func() bool {
		statusReq := httptest.NewRequest(http.MethodGet, "/v1/documents/status/"+jobID.String(), nil)
		statusRec := httptest.NewRecorder()
		ts.handler.ServeHTTP(statusRec, statusReq)
		require.Equal(t, http.StatusOK, statusRec.Code)
		statusBody = decodeBody(t, statusRec)
		status, _ := statusBody["status"].(string)
		return status == "completed" || status == "failed"
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "completed", statusBody["status"])
	assert.Equal(t, float64(100), statusBody["percentage"])
	details, ok := statusBody["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), details["chunks_created"])
}

func TestUploadPersistsFileToUploadDir(t *testing.T) {
	dir := t.TempDir()
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.UploadDir = dir
	})

	content := docWords(30)
	body, contentType := multipartUpload(t, "notes.txt", content, "virt-os", validSourceInfoJSON())
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decodeBody(t, rec)
	jobID := resp["job_id"].(string)

	saved, err := os.ReadFile(filepath.Join(dir, jobID, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(saved))
}

func TestUploadRejectsInvalidDomain(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartUpload(t, "doc.txt", "some text", "quantum", validSourceInfoJSON())
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DOMAIN", errorCode(t, rec))
	assert.Equal(t, 0, ts.tracker.Len())
}

func TestUploadRejectsMissingSourceInfo(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartUpload(t, "doc.txt", "some text", "ai", "")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_SOURCE_INFO", errorCode(t, rec))
}

func TestUploadRejectsIncompleteSourceInfo(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartUpload(t, "doc.txt", "some text", "ai",
		`{"title":"Only Title"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_SOURCE_INFO", errorCode(t, rec))
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartUpload(t, "notes.md", "some text", "ai", validSourceInfoJSON())
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", errorCode(t, rec))
}

func TestStatusUnknownJob(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/status/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", errorCode(t, rec))
}

func TestStatusMalformedJobID(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/status/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", errorCode(t, rec))
}

func TestQueryEmptyKnowledgeBase(t *testing.T) {
	ts := newTestServer(t)

	payload := `{"query":"how does the scheduler work?","domain":"ai"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody(t, rec)
	assert.Equal(t, retrieval.InsufficientInformation, resp["response"])
	assert.Empty(t, resp["sources"])
	// The generator must not run when nothing clears the threshold.
	assert.Equal(t, 0, ts.generator.CallCount())
}

func TestQueryWithoutDomainSearchesAllDomains(t *testing.T) {
	ts := newTestServer(t)

	payload := `{"query":"how does the scheduler work?"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody(t, rec)
	assert.Equal(t, retrieval.InsufficientInformation, resp["response"])
}

func TestQueryInvalidDomain(t *testing.T) {
	ts := newTestServer(t)

	payload := `{"query":"anything","domain":"quantum"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DOMAIN", errorCode(t, rec))
}

func TestQueryEmptyQuery(t *testing.T) {
	ts := newTestServer(t)

	payload := `{"query":"   ","domain":"ai"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "QUERY_PROCESSING_ERROR", errorCode(t, rec))
}

func TestQueryMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "QUERY_PROCESSING_ERROR", errorCode(t, rec))
}

func TestQueryReturnsAnswerWithSources(t *testing.T) {
	ts := newTestServer(t)

	// Make every embedding identical so retrieval scores 1.0.
	ts.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		vec := make([]float32, testDims)
		vec[0] = 1
		return vec, nil
	}
	ts.generator.Response = "The scheduler uses a run queue per core."

	body, contentType := multipartUpload(t, "scheduler.txt", docWords(50), "virt-os", validSourceInfoJSON())
	uploadReq := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", body)
	uploadReq.Header.Set("Content-Type", contentType)
	uploadRec := httptest.NewRecorder()
	ts.handler.ServeHTTP(uploadRec, uploadReq)
	require.Equal(t, http.StatusAccepted, uploadRec.Code)

	jobID, err := uuid.Parse(decodeBody(t, uploadRec)["job_id"].(string))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		job, err := ts.tracker.Get(jobID)
		require.NoError(t, err)
		return job.Finished()
	}, 5*time.Second, 10*time.Millisecond)

	payload := `{"query":"how does the scheduler work?","domain":"virt-os"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody(t, rec)
	assert.Equal(t, "The scheduler uses a run queue per core.", resp["response"])

	sources, ok := resp["sources"].([]any)
	require.True(t, ok)
	require.Len(t, sources, 1) // deduplicated by title
	source := sources[0].(map[string]any)
	assert.Equal(t, "Scheduler Deep Dive", source["title"])
	assert.Equal(t, "P. Novak", source["author"])
}

func TestSupportedFileTypes(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/system/supported-file-types", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.ElementsMatch(t, []any{".txt", ".pdf", ".docx"}, resp["supported_file_types"])
}

func TestDomains(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/system/domains", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.ElementsMatch(t, []any{"ai", "cloud", "virt-os"}, resp["domains"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/query", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

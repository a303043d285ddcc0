package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/model/caselaw"
	"github.com/qanoonbuddy/backend/internal/service/ai"
	"github.com/qanoonbuddy/backend/internal/service/legal"
)

type stubExtractor struct {
	text string
	err  error
}

func (e stubExtractor) ExtractText(context.Context, []byte) (string, error) {
	return e.text, e.err
}

type readyResolver struct {
	prompts *[]string
}

func (readyResolver) Available(string) bool { return true }

func (r readyResolver) Resolve(context.Context, string) (ai.Backend, error) {
	return ai.BackendFunc(func(_ context.Context, prompt string) (string, error) {
		*r.prompts = append(*r.prompts, prompt)
		return "summary", nil
	}), nil
}

func newRouter(extractor stubExtractor, maxUpload int64) (*chi.Mux, *[]string) {
	prompts := &[]string{}
	svc := legal.NewService(readyResolver{prompts: prompts}, extractor, caselaw.NewIndex(caselaw.Seed()),
		config.DocumentConfig{MaxChars: 4000, MaxUploadBytes: maxUpload}, nil, nil)
	r := chi.NewRouter()
	New(svc, nil).RegisterRoutes(r)
	return r, prompts
}

func uploadRequest(t *testing.T, path, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSummarizeDocumentTruncatesLongText(t *testing.T) {
	r, prompts := newRouter(stubExtractor{text: strings.Repeat("a", 4500)}, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "/documents/summarize", "judgment.pdf", []byte("%PDF-1.4"), map[string]string{"lang": "ur"}))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		FileName       string `json:"fileName"`
		Language       string `json:"language"`
		Summary        string `json:"summary"`
		Truncated      bool   `json:"truncated"`
		UsedChars      int    `json:"usedChars"`
		ExtractedChars int    `json:"extractedChars"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "judgment.pdf", body.FileName)
	assert.Equal(t, "ur", body.Language)
	assert.Equal(t, "summary", body.Summary)
	assert.True(t, body.Truncated)
	assert.Equal(t, 4000, body.UsedChars)
	assert.Equal(t, 4500, body.ExtractedChars)

	require.Len(t, *prompts, 1)
	assert.True(t, strings.HasSuffix((*prompts)[0], "\n\n"+strings.Repeat("a", 4000)))
	assert.Contains(t, (*prompts)[0], "simple Urdu")
}

func TestSummarizeDocumentExtractionFailure(t *testing.T) {
	r, prompts := newRouter(stubExtractor{err: errors.New("malformed xref")}, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "/documents/summarize", "broken.pdf", []byte("garbage"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Empty(t, *prompts)
}

func TestSummarizeDocumentValidation(t *testing.T) {
	r, _ := newRouter(stubExtractor{text: "text"}, 1<<20)

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"missing file", uploadRequest(t, "/documents/summarize", "", nil, map[string]string{"lang": "en"}), http.StatusBadRequest},
		{"not a pdf", uploadRequest(t, "/documents/summarize", "notes.txt", []byte("x"), nil), http.StatusBadRequest},
		{"bad lang", uploadRequest(t, "/documents/summarize", "a.pdf", []byte("x"), map[string]string{"lang": "fr"}), http.StatusBadRequest},
		{"bad chunked", uploadRequest(t, "/documents/summarize", "a.pdf", []byte("x"), map[string]string{"chunked": "maybe"}), http.StatusBadRequest},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/documents/summarize", strings.NewReader("{}")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, tc.req)
			assert.Equal(t, tc.status, resp.Code)
		})
	}
}

func TestSummarizeDocumentTooLarge(t *testing.T) {
	r, _ := newRouter(stubExtractor{text: "text"}, 16)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "/documents/summarize", "big.pdf", bytes.Repeat([]byte("x"), 64), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestExtractDocument(t *testing.T) {
	r, prompts := newRouter(stubExtractor{text: "IN THE SUPREME COURT OF PAKISTAN"}, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "/documents/extract", "order.PDF", []byte("%PDF"), nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"fileName":"order.PDF","extractedChars":32,"preview":"IN THE SUPREME COURT OF PAKISTAN"}`, resp.Body.String())
	assert.Empty(t, *prompts)
}

func TestExtractDocumentWithoutText(t *testing.T) {
	r, _ := newRouter(stubExtractor{}, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "/documents/extract", "scan.pdf", []byte("%PDF"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), domain.ErrExtraction.Error())
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

type fakeDocuments struct {
	services.DocumentService
	docs       map[uuid.UUID]*models.Document
	duplicate  bool
	lastFilter repositories.DocumentFilter
	deleted    []uuid.UUID
}

func (f *fakeDocuments) CreateFromUpload(_ context.Context, file *multipart.FileHeader, role models.Role) (*models.Document, bool, error) {
	doc := &models.Document{ID: uuid.New(), Role: role, Filename: "stored.pdf", OriginalFilename: file.Filename, EmbeddingStatus: models.StatusPending}
	return doc, f.duplicate, nil
}

func (f *fakeDocuments) CreateFromText(_ context.Context, role models.Role, title, content string) (*models.Document, bool, error) {
	if content == "" {
		return nil, false, apperror.Validation("documents.create_text", "content must not be empty")
	}
	return &models.Document{ID: uuid.New(), Role: role, Title: title, EmbeddingStatus: models.StatusPending}, f.duplicate, nil
}

func (f *fakeDocuments) Get(_ context.Context, id uuid.UUID) (*models.Document, error) {
	if doc, ok := f.docs[id]; ok {
		return doc, nil
	}
	return nil, apperror.NotFound("documents.find", "document not found").WithDetail("document_id", id.String())
}

func (f *fakeDocuments) List(_ context.Context, filter repositories.DocumentFilter) ([]models.Document, error) {
	f.lastFilter = filter
	var out []models.Document
	for _, d := range f.docs {
		if filter.Role == "" || d.Role == filter.Role {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) Summary(context.Context) (*models.DocumentSummary, error) {
	return &models.DocumentSummary{TotalDocuments: len(f.docs)}, nil
}

func (f *fakeDocuments) Chunks(ctx context.Context, id uuid.UUID) ([]models.Chunk, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return nil, err
	}
	return []models.Chunk{{DocumentID: id, ChunkIndex: 0, Content: "Go"}}, nil
}

func (f *fakeDocuments) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeIngestion struct {
	lastOpts services.IngestOptions
	err      error
}

func (f *fakeIngestion) Ingest(_ context.Context, id uuid.UUID, opts services.IngestOptions) (*models.IngestionResult, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &models.IngestionResult{DocumentID: id, Status: models.IngestionCompleted, ChunksCreated: 4}, nil
}

func (f *fakeIngestion) IngestMany(_ context.Context, ids []uuid.UUID, opts services.IngestOptions) []models.IngestionResult {
	f.lastOpts = opts
	results := make([]models.IngestionResult, len(ids))
	for i, id := range ids {
		results[i] = models.IngestionResult{DocumentID: id, Status: models.IngestionCompleted}
	}
	if len(results) > 1 {
		results[1].Status = models.IngestionFailed
	}
	return results
}

type fakeWorker struct {
	services.Worker
	requested []uuid.UUID
}

func (f *fakeWorker) RequestIngest(_ context.Context, id uuid.UUID) error {
	f.requested = append(f.requested, id)
	return nil
}

type fakeAnalysis struct {
	err error
}

func (f *fakeAnalysis) Match(_ context.Context, resumeID, jdID uuid.UUID) (*models.MatchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.MatchResult{ResumeID: resumeID, JDID: jdID, MatchScore: 71, Grade: models.GradeB}, nil
}

func (f *fakeAnalysis) Gaps(ctx context.Context, resumeID, jdID uuid.UUID) (*models.GapAnalysis, error) {
	result, err := f.Match(ctx, resumeID, jdID)
	if err != nil {
		return nil, err
	}
	return &models.GapAnalysis{MatchResult: *result, Recommendation: "Good match."}, nil
}

type fakeRoadmap struct {
	weeks int
}

func (f *fakeRoadmap) Generate(_ context.Context, _, _ uuid.UUID, targetWeeks int) (*models.Roadmap, error) {
	f.weeks = targetWeeks
	return &models.Roadmap{TotalWeeks: 8, MatchGrade: "B"}, nil
}

type testServer struct {
	app       *fiber.App
	documents *fakeDocuments
	ingestion *fakeIngestion
	worker    *fakeWorker
	analysis  *fakeAnalysis
	roadmap   *fakeRoadmap
}

func newTestServer() *testServer {
	s := &testServer{
		documents: &fakeDocuments{docs: map[uuid.UUID]*models.Document{}},
		ingestion: &fakeIngestion{},
		worker:    &fakeWorker{},
		analysis:  &fakeAnalysis{},
		roadmap:   &fakeRoadmap{},
	}
	s.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(s.app.Group("/api/v1"), Handlers{
		Health:    NewHealthHandler(s.documents, "memory"),
		Upload:    NewUploadHandler(s.documents, 1024),
		Documents: NewDocumentHandler(s.documents),
		Ingest:    NewIngestHandler(s.documents, s.ingestion, s.worker),
		Analysis:  NewAnalysisHandler(s.analysis, s.roadmap),
	})
	return s
}

func (s *testServer) addDoc(role models.Role, status models.EmbeddingStatus) *models.Document {
	doc := &models.Document{ID: uuid.New(), Role: role, EmbeddingStatus: status, ChunkCount: 3}
	s.documents.docs[doc.ID] = doc
	return doc
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Message string           `json:"message"`
	Error   *models.APIError `json:"error"`
}

func (s *testServer) do(t *testing.T, req *http.Request, wantStatus int) envelope {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d; body %s", req.Method, req.URL.Path, resp.StatusCode, wantStatus, body)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode body %s: %v", body, err)
	}
	return env
}

func jsonRequest(method, path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperror.Kind
		want int
	}{
		{apperror.KindNotFound, 404},
		{apperror.KindValidation, 400},
		{apperror.KindInvalidInput, 400},
		{apperror.KindPreconditionFailed, 400},
		{apperror.KindExternalService, 502},
		{apperror.KindTransientConnection, 503},
		{apperror.KindRateLimited, 503},
		{apperror.KindInternal, 500},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.kind); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	s.addDoc(models.RoleResume, models.StatusPending)

	env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), http.StatusOK)
	var data struct {
		Status        string                 `json:"status"`
		VectorBackend string                 `json:"vector_backend"`
		Documents     models.DocumentSummary `json:"documents"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !env.Success || data.Status != "healthy" || data.VectorBackend != "memory" || data.Documents.TotalDocuments != 1 {
		t.Fatalf("health = %+v", data)
	}
}

func multipartUpload(t *testing.T, role, filename string, size int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if role != "" {
		w.WriteField("role", role)
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error: %v", err)
		}
		part.Write(bytes.Repeat([]byte("x"), size))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	s := newTestServer()

	env := s.do(t, multipartUpload(t, "resume", "jane.pdf", 10), http.StatusCreated)
	var data models.UploadResponse
	json.Unmarshal(env.Data, &data)
	if data.Role != models.RoleResume || data.OriginalName != "jane.pdf" || data.Duplicate {
		t.Fatalf("upload response = %+v", data)
	}

	s.documents.duplicate = true
	env = s.do(t, multipartUpload(t, "resume", "jane.pdf", 10), http.StatusOK)
	json.Unmarshal(env.Data, &data)
	if !data.Duplicate {
		t.Fatalf("expected duplicate flag")
	}
}

func TestUploadValidation(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name     string
		role     string
		filename string
		size     int
	}{
		{"missing role", "", "jane.pdf", 10},
		{"unknown role", "cover_letter", "jane.pdf", 10},
		{"missing file", "resume", "", 0},
		{"too large", "resume", "jane.pdf", 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := s.do(t, multipartUpload(t, tt.role, tt.filename, tt.size), http.StatusBadRequest)
			if env.Success || env.Error == nil || env.Error.Code != string(apperror.KindValidation) {
				t.Fatalf("error = %+v", env.Error)
			}
		})
	}
}

func TestCreateText(t *testing.T) {
	s := newTestServer()

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/documents/text", models.TextDocumentRequest{
		Role: "job_description", Title: "Backend", Content: "Requirements\nGo",
	}), http.StatusCreated)

	env := s.do(t, jsonRequest(http.MethodPost, "/api/v1/documents/text", models.TextDocumentRequest{
		Role: "job_description",
	}), http.StatusBadRequest)
	if env.Error.Code != string(apperror.KindValidation) {
		t.Fatalf("error code = %s", env.Error.Code)
	}
}

func TestDocumentEndpoints(t *testing.T) {
	s := newTestServer()
	doc := s.addDoc(models.RoleResume, models.StatusCompleted)
	s.addDoc(models.RoleJobDescription, models.StatusPending)

	env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String(), nil), http.StatusOK)
	var status models.DocumentStatusResponse
	json.Unmarshal(env.Data, &status)
	if status.ID != doc.ID.String() || status.EmbeddingStatus != models.StatusCompleted {
		t.Fatalf("status = %+v", status)
	}

	s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/not-a-uuid", nil), http.StatusBadRequest)

	missing := uuid.New().String()
	env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+missing, nil), http.StatusNotFound)
	if env.Error.Code != string(apperror.KindNotFound) || env.Error.Details["document_id"] != missing {
		t.Fatalf("error = %+v", env.Error)
	}

	env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil), http.StatusOK)
	var list models.DocumentListResponse
	json.Unmarshal(env.Data, &list)
	if list.Total != 2 || list.Summary == nil {
		t.Fatalf("list = %+v", list)
	}

	env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents?role=resume&status=completed", nil), http.StatusOK)
	json.Unmarshal(env.Data, &list)
	if list.Total != 1 || list.Summary != nil {
		t.Fatalf("filtered list = %+v", list)
	}
	if s.documents.lastFilter.Status != models.StatusCompleted {
		t.Fatalf("status filter not passed: %+v", s.documents.lastFilter)
	}

	s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/chunks", nil), http.StatusOK)

	s.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+doc.ID.String(), nil), http.StatusOK)
	if len(s.documents.deleted) != 1 || s.documents.deleted[0] != doc.ID {
		t.Fatalf("deleted = %v", s.documents.deleted)
	}
}

func TestIngestSync(t *testing.T) {
	s := newTestServer()
	id := uuid.New()

	env := s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{"document_id": id.String()}), http.StatusOK)
	var result models.IngestionResult
	json.Unmarshal(env.Data, &result)
	if result.DocumentID != id || result.Status != models.IngestionCompleted {
		t.Fatalf("result = %+v", result)
	}
	if !s.ingestion.lastOpts.SkipIfExists {
		t.Fatalf("skip_if_exists should default to true")
	}

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{
		"document_id": id.String(), "skip_if_exists": false, "chunk_size": 400, "chunk_overlap": 50,
	}), http.StatusOK)
	if s.ingestion.lastOpts.SkipIfExists || s.ingestion.lastOpts.ChunkSize != 400 || s.ingestion.lastOpts.ChunkOverlap != 50 {
		t.Fatalf("options not passed: %+v", s.ingestion.lastOpts)
	}

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{
		"document_id": id.String(), "chunk_size": 100, "chunk_overlap": 100,
	}), http.StatusBadRequest)

	s.ingestion.err = apperror.External("gemini.embed", io.ErrUnexpectedEOF)
	env = s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{"document_id": id.String()}), http.StatusBadGateway)
	if env.Error.Code != string(apperror.KindExternalService) {
		t.Fatalf("error code = %s", env.Error.Code)
	}
}

func TestIngestAsync(t *testing.T) {
	s := newTestServer()
	pending := s.addDoc(models.RoleResume, models.StatusPending)
	completed := s.addDoc(models.RoleResume, models.StatusCompleted)
	failed := s.addDoc(models.RoleResume, models.StatusFailed)

	env := s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{"document_id": pending.ID.String(), "async": true}), http.StatusAccepted)
	var result models.IngestionResult
	json.Unmarshal(env.Data, &result)
	if result.Status != models.IngestionQueued || len(s.worker.requested) != 1 || s.worker.requested[0] != pending.ID {
		t.Fatalf("result = %+v, requested = %v", result, s.worker.requested)
	}

	env = s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{"document_id": completed.ID.String(), "async": true}), http.StatusOK)
	json.Unmarshal(env.Data, &result)
	if result.Status != models.IngestionSkipped {
		t.Fatalf("completed document status = %s", result.Status)
	}

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{
		"document_id": completed.ID.String(), "async": true, "skip_if_exists": false,
	}), http.StatusBadRequest)

	env = s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{"document_id": failed.ID.String(), "async": true}), http.StatusBadRequest)
	if env.Error.Code != string(apperror.KindPreconditionFailed) {
		t.Fatalf("error code = %s", env.Error.Code)
	}

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest", fiber.Map{"document_id": uuid.New().String(), "async": true}), http.StatusNotFound)
	if len(s.worker.requested) != 1 {
		t.Fatalf("worker received %d requests", len(s.worker.requested))
	}
}

func TestBatchIngest(t *testing.T) {
	s := newTestServer()
	a, b := uuid.New().String(), uuid.New().String()

	env := s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest/batch", fiber.Map{"document_ids": []string{a, b, a}}), http.StatusOK)
	var resp models.BatchIngestResponse
	json.Unmarshal(env.Data, &resp)
	if len(resp.Results) != 2 || resp.Succeeded != 1 || resp.Failed != 1 {
		t.Fatalf("batch = %+v", resp)
	}

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest/batch", fiber.Map{"document_ids": []string{}}), http.StatusBadRequest)
	s.do(t, jsonRequest(http.MethodPost, "/api/v1/ingest/batch", fiber.Map{"document_ids": []string{"nope"}}), http.StatusBadRequest)
}

func TestAnalysisEndpoints(t *testing.T) {
	s := newTestServer()
	pair := fiber.Map{"resume_id": uuid.New().String(), "jd_id": uuid.New().String()}

	env := s.do(t, jsonRequest(http.MethodPost, "/api/v1/analysis/match", pair), http.StatusOK)
	var result models.MatchResult
	json.Unmarshal(env.Data, &result)
	if result.Grade != models.GradeB {
		t.Fatalf("match = %+v", result)
	}

	env = s.do(t, jsonRequest(http.MethodPost, "/api/v1/analysis/gaps", pair), http.StatusOK)
	var gaps models.GapAnalysis
	json.Unmarshal(env.Data, &gaps)
	if gaps.Recommendation == "" {
		t.Fatalf("gaps = %+v", gaps)
	}

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/roadmap/generate", fiber.Map{
		"resume_id": pair["resume_id"], "jd_id": pair["jd_id"], "target_weeks": 6,
	}), http.StatusOK)
	if s.roadmap.weeks != 6 {
		t.Fatalf("target weeks = %d, want 6", s.roadmap.weeks)
	}

	s.do(t, jsonRequest(http.MethodPost, "/api/v1/analysis/match", fiber.Map{"resume_id": "x"}), http.StatusBadRequest)

	s.analysis.err = apperror.New(apperror.KindRateLimited, "gemini", "quota exceeded")
	env = s.do(t, jsonRequest(http.MethodPost, "/api/v1/analysis/match", pair), http.StatusServiceUnavailable)
	if env.Error.Code != string(apperror.KindRateLimited) || env.Error.Message != "quota exceeded" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer()

	env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil), http.StatusNotFound)
	if env.Success || env.Error == nil || env.Error.Code != string(apperror.KindNotFound) {
		t.Fatalf("envelope = %+v", env)
	}
}

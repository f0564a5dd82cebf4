package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/middleware"
	"github.com/easelhq/easel-api/internal/models"
	"github.com/easelhq/easel-api/internal/services"
	"github.com/easelhq/easel-api/pkg/dto"
	"github.com/easelhq/easel-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, name string) string {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(userID, name)
	require.NoError(t, err)
	return token
}

func testSession(creatorID uuid.UUID) *models.Session {
	return &models.Session{
		ID:        "collab_test",
		Title:     "Mural",
		CreatorID: creatorID,
		CreatedAt: time.Now(),
		Settings:  models.DefaultSessionSettings(),
		Participants: map[uuid.UUID]*models.Participant{
			creatorID: {
				UserID:   creatorID,
				Name:     "Ada",
				Role:     models.RoleCreator,
				JoinedAt: time.Now(),
				Active:   true,
			},
		},
		Canvas: models.NewCanvasState(),
		Active: true,
	}
}

func setupSessionTest(t *testing.T) (*testutil.MockSessionManager, *testutil.MockSnapshotService, *SessionHandler, *services.JWTService) {
	t.Helper()
	mockManager := new(testutil.MockSessionManager)
	mockSnapshots := new(testutil.MockSnapshotService)
	handler := NewSessionHandler(mockManager, mockSnapshots)
	jwtSvc := services.NewJWTService("test-secret-key", 15*time.Minute)
	return mockManager, mockSnapshots, handler, jwtSvc
}

func sessionApp(handler *SessionHandler, jwtSvc *services.JWTService) *drift.Engine {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/sessions", handler.Create)
	app.Get("/sessions", handler.List)
	app.Get("/sessions/:sessionId", handler.Get)
	app.Post("/sessions/:sessionId/join", handler.Join)
	app.Post("/sessions/:sessionId/leave", handler.Leave)
	app.Post("/sessions/:sessionId/close", handler.Close)
	return app
}

func TestSessionHandler_Create_Success(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	session := testSession(userID)

	mockManager.On("CreateSession", mock.Anything, userID, "Ada", "Mural", "", (*models.SessionSettings)(nil)).
		Return(session, nil)

	app := sessionApp(handler, jwtSvc)

	body := dto.CreateSessionRequest{Title: "Mural"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, jwtSvc, userID, "Ada")
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "collab_test", response.ID)
	assert.Equal(t, "Mural", response.Title)
	assert.True(t, response.Active)
	assert.Len(t, response.Participants, 1)

	mockManager.AssertExpectations(t)
}

func TestSessionHandler_Create_EmptyTitle(t *testing.T) {
	_, _, handler, jwtSvc := setupSessionTest(t)
	app := sessionApp(handler, jwtSvc)

	userID := uuid.New()
	jsonBody, _ := json.Marshal(dto.CreateSessionRequest{})

	token := generateTestToken(t, jwtSvc, userID, "Ada")
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "title is required")
}

func TestSessionHandler_Create_Unauthenticated(t *testing.T) {
	_, _, handler, jwtSvc := setupSessionTest(t)
	app := sessionApp(handler, jwtSvc)

	jsonBody, _ := json.Marshal(dto.CreateSessionRequest{Title: "Mural"})
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionHandler_List(t *testing.T) {
	_, mockSnapshots, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	mockSnapshots.On("ListActive", mock.Anything).Return([]services.SessionSummary{
		{SessionID: "collab_a", CreatorID: userID, Title: "Mural", Active: true},
	}, nil)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Ada")
	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.SessionSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "collab_a", response[0].SessionID)

	mockSnapshots.AssertExpectations(t)
}

func TestSessionHandler_Get_Success(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	session := testSession(userID)
	mockManager.On("Snapshot", mock.Anything, "collab_test").
		Return(&collab.SessionSnapshot{Session: *session, Sequence: 7}, nil)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Ada")
	req := httptest.NewRequest(http.MethodGet, "/sessions/collab_test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.SessionSnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(7), response.Sequence)
	assert.Len(t, response.Canvas.Layers, 1)

	mockManager.AssertExpectations(t)
}

func TestSessionHandler_Get_NotFound(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	mockManager.On("Snapshot", mock.Anything, "collab_gone").
		Return(nil, collab.ErrSessionNotFound)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Ada")
	req := httptest.NewRequest(http.MethodGet, "/sessions/collab_gone", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "session not found")
}

func TestSessionHandler_Join_Success(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	session := testSession(uuid.New())
	mockManager.On("JoinSession", mock.Anything, "collab_test", userID, "Grace").
		Return(&collab.SessionSnapshot{Session: *session, Sequence: 3}, nil)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Grace")
	req := httptest.NewRequest(http.MethodPost, "/sessions/collab_test/join", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.SessionSnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(3), response.Sequence)

	mockManager.AssertExpectations(t)
}

func TestSessionHandler_Join_SessionFull(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	mockManager.On("JoinSession", mock.Anything, "collab_test", userID, "Grace").
		Return(nil, collab.ErrSessionFull)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Grace")
	req := httptest.NewRequest(http.MethodPost, "/sessions/collab_test/join", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESSION_FULL")
}

func TestSessionHandler_Join_SessionClosed(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	mockManager.On("JoinSession", mock.Anything, "collab_test", userID, "Grace").
		Return(nil, collab.ErrSessionClosed)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Grace")
	req := httptest.NewRequest(http.MethodPost, "/sessions/collab_test/join", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESSION_CLOSED")
}

func TestSessionHandler_Leave_Success(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	mockManager.On("LeaveSession", mock.Anything, "collab_test", userID).Return(nil)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Grace")
	req := httptest.NewRequest(http.MethodPost, "/sessions/collab_test/leave", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockManager.AssertExpectations(t)
}

func TestSessionHandler_Leave_NotParticipant(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	mockManager.On("LeaveSession", mock.Anything, "collab_test", userID).
		Return(collab.ErrNotAParticipant)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Grace")
	req := httptest.NewRequest(http.MethodPost, "/sessions/collab_test/leave", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionHandler_Close_NotAllowed(t *testing.T) {
	mockManager, _, handler, jwtSvc := setupSessionTest(t)

	userID := uuid.New()
	mockManager.On("CloseSession", mock.Anything, "collab_test", userID).
		Return(collab.ErrNotAllowed)

	app := sessionApp(handler, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "Grace")
	req := httptest.NewRequest(http.MethodPost, "/sessions/collab_test/close", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

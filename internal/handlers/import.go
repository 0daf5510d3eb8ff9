package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/firestore"
	"github.com/rumor-ml/commons.systems/bankimport/internal/middleware"
	"github.com/rumor-ml/commons.systems/bankimport/internal/pipeline"
)

// maxUploadBytes bounds statement uploads (multipart form, 32MB)
const maxUploadBytes = 32 << 20

// Importer parses and reconciles uploaded statements
type Importer interface {
	ParseContent(ctx context.Context, fileName string, content []byte, accountID string) (*domain.ParsedBankStatement, error)
	ImportStatement(ctx context.Context, userID, accountID string, statement *domain.ParsedBankStatement) (*pipeline.ImportResult, error)
}

// SessionStore records import sessions
type SessionStore interface {
	CreateImportSession(ctx context.Context, session *firestore.ImportSession) error
	UpdateImportSession(ctx context.Context, session *firestore.ImportSession) error
}

// ImportHandler handles statement uploads
type ImportHandler struct {
	importer Importer
	sessions SessionStore
}

// NewImportHandler creates a new import handler
func NewImportHandler(importer Importer, sessions SessionStore) *ImportHandler {
	return &ImportHandler{importer: importer, sessions: sessions}
}

// Import handles POST /api/import. The request is a multipart form with a
// "file" part and an "accountId" field. The import runs synchronously and
// the response carries the reconciliation counts.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	authInfo, ok := middleware.GetAuth(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	accountID := r.FormValue("accountId")
	if accountID == "" {
		http.Error(w, "accountId is required", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	session := &firestore.ImportSession{
		ID:        uuid.New().String(),
		UserID:    authInfo.UserID,
		AccountID: accountID,
		FileName:  fileHeader.Filename,
		Status:    firestore.ImportSessionStatusProcessing,
		CreatedAt: time.Now(),
	}
	if err := h.sessions.CreateImportSession(r.Context(), session); err != nil {
		log.Printf("ERROR: Failed to create import session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	statement, err := h.importer.ParseContent(r.Context(), fileHeader.Filename, content, accountID)
	if err != nil {
		h.failSession(r.Context(), session, err)
		http.Error(w, "Failed to parse statement", http.StatusUnprocessableEntity)
		return
	}

	result, err := h.importer.ImportStatement(r.Context(), authInfo.UserID, accountID, statement)
	if err != nil {
		h.failSession(r.Context(), session, err)
		log.Printf("ERROR: Failed to import statement %s: %v", fileHeader.Filename, err)
		http.Error(w, "Failed to import statement", http.StatusInternalServerError)
		return
	}

	result.FileName = fileHeader.Filename

	now := time.Now()
	session.Status = firestore.ImportSessionStatusCompleted
	session.Imported = result.Imported
	session.Skipped = result.Skipped
	session.BalancesImported = result.BalancesImported
	session.BalancesSkipped = result.BalancesSkipped
	session.CompletedAt = &now
	if err := h.sessions.UpdateImportSession(r.Context(), session); err != nil {
		log.Printf("ERROR: Failed to update import session %s: %v", session.ID, err)
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ImportHandler) failSession(ctx context.Context, session *firestore.ImportSession, cause error) {
	session.Status = firestore.ImportSessionStatusError
	session.Error = cause.Error()
	if err := h.sessions.UpdateImportSession(ctx, session); err != nil {
		log.Printf("ERROR: Failed to mark import session %s as failed: %v", session.ID, err)
	}
}

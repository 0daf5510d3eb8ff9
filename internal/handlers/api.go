package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/bankimport/internal/firestore"
	"github.com/rumor-ml/commons.systems/bankimport/internal/middleware"
)

// LedgerStore interface for dependency injection
type LedgerStore interface {
	GetAccounts(ctx context.Context, userID string) ([]*firestore.Account, error)
	CreateAccount(ctx context.Context, acc *firestore.Account) error
	GetCategories(ctx context.Context, userID string) ([]*firestore.Category, error)
	CreateCategory(ctx context.Context, cat *firestore.Category) error
	GetEntries(ctx context.Context, userID string) ([]*firestore.Entry, error)
	CreateEntry(ctx context.Context, entry *firestore.Entry) error
	ListImportSessions(ctx context.Context, userID string) ([]*firestore.ImportSession, error)
}

// APIHandler handles ledger CRUD requests
type APIHandler struct {
	store LedgerStore
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(store LedgerStore) *APIHandler {
	return &APIHandler{store: store}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// Accounts handles GET and POST /api/accounts
func (h *APIHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		accounts, err := h.store.GetAccounts(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Failed to fetch accounts for user %s: %v", userID, err)
			http.Error(w, "Failed to fetch accounts", http.StatusInternalServerError)
			return
		}
		if accounts == nil {
			accounts = []*firestore.Account{}
		}
		writeJSON(w, http.StatusOK, accounts)

	case http.MethodPost:
		var acc firestore.Account
		if err := json.NewDecoder(r.Body).Decode(&acc); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if acc.Name == "" {
			http.Error(w, "Account name is required", http.StatusBadRequest)
			return
		}
		acc.ID = uuid.New().String()
		acc.UserID = userID
		acc.CreatedAt = time.Now()

		if err := h.store.CreateAccount(r.Context(), &acc); err != nil {
			log.Printf("ERROR: Failed to create account for user %s: %v", userID, err)
			http.Error(w, "Failed to create account", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, &acc)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Categories handles GET and POST /api/categories
func (h *APIHandler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		categories, err := h.store.GetCategories(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Failed to fetch categories for user %s: %v", userID, err)
			http.Error(w, "Failed to fetch categories", http.StatusInternalServerError)
			return
		}
		if categories == nil {
			categories = []*firestore.Category{}
		}
		writeJSON(w, http.StatusOK, categories)

	case http.MethodPost:
		var cat firestore.Category
		if err := json.NewDecoder(r.Body).Decode(&cat); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if cat.Name == "" {
			http.Error(w, "Category name is required", http.StatusBadRequest)
			return
		}
		cat.ID = uuid.New().String()
		cat.UserID = userID
		cat.CreatedAt = time.Now()

		if err := h.store.CreateCategory(r.Context(), &cat); err != nil {
			log.Printf("ERROR: Failed to create category for user %s: %v", userID, err)
			http.Error(w, "Failed to create category", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, &cat)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Entries handles GET and POST /api/entries
func (h *APIHandler) Entries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries, err := h.store.GetEntries(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Failed to fetch entries for user %s: %v", userID, err)
			http.Error(w, "Failed to fetch entries", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []*firestore.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)

	case http.MethodPost:
		var entry firestore.Entry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if entry.AccountID == "" || entry.Description == "" {
			http.Error(w, "Account ID and description are required", http.StatusBadRequest)
			return
		}
		entry.ID = uuid.New().String()
		entry.UserID = userID
		entry.CreatedAt = time.Now()

		if err := h.store.CreateEntry(r.Context(), &entry); err != nil {
			log.Printf("ERROR: Failed to create entry for user %s: %v", userID, err)
			http.Error(w, "Failed to create entry", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, &entry)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ImportSessions handles GET /api/sessions
func (h *APIHandler) ImportSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions, err := h.store.ListImportSessions(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: Failed to fetch import sessions for user %s: %v", userID, err)
		http.Error(w, "Failed to fetch import sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*firestore.ImportSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/rumor-ml/commons.systems/bankimport/internal/config"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// Client wraps Firestore with ledger-specific operations
type Client struct {
	Firestore   *firestore.Client
	Auth        *auth.Client
	projectID   string
	collections config.Collections
}

// NewClient creates a new Firestore client
func NewClient(ctx context.Context, projectID string, collections config.Collections) (*Client, error) {
	conf := &firebase.Config{ProjectID: projectID}

	// Application Default Credentials resolve the service account
	var opts []option.ClientOption
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to create Auth client: %w", err)
	}

	return &Client{
		Firestore:   firestoreClient,
		Auth:        authClient,
		projectID:   projectID,
		collections: collections,
	}, nil
}

// Close closes the Firestore client
func (c *Client) Close() error {
	return c.Firestore.Close()
}

// Transaction is a persisted ledger transaction
type Transaction struct {
	UserID      string    `firestore:"userId" json:"userId"`
	AccountID   string    `firestore:"accountId" json:"accountId"`
	Date        string    `firestore:"date" json:"date"` // YYYY-MM-DD
	Description string    `firestore:"description" json:"description"`
	Details     string    `firestore:"details,omitempty" json:"details,omitempty"`
	DocumentID  string    `firestore:"documentId,omitempty" json:"documentId,omitempty"`
	AmountCents int64     `firestore:"amountCents" json:"amountCents"`
	Type        string    `firestore:"type" json:"type"`
	Category    string    `firestore:"category,omitempty" json:"category,omitempty"`
	ImportHash  string    `firestore:"importHash" json:"importHash"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}

// Balance is a persisted daily balance snapshot
type Balance struct {
	UserID       string    `firestore:"userId" json:"userId"`
	AccountID    string    `firestore:"accountId" json:"accountId"`
	Date         string    `firestore:"date" json:"date"` // YYYY-MM-DD
	BalanceCents int64     `firestore:"balanceCents" json:"balanceCents"`
	ImportHash   string    `firestore:"importHash" json:"importHash"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
}

// Account is a ledger account
type Account struct {
	ID        string    `firestore:"id" json:"id"`
	UserID    string    `firestore:"userId" json:"userId"`
	Name      string    `firestore:"name" json:"name"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// Category is a ledger category
type Category struct {
	ID        string    `firestore:"id" json:"id"`
	UserID    string    `firestore:"userId" json:"userId"`
	Name      string    `firestore:"name" json:"name"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// Entry is a manually created ledger entry, as opposed to an imported one
type Entry struct {
	ID          string    `firestore:"id" json:"id"`
	UserID      string    `firestore:"userId" json:"userId"`
	AccountID   string    `firestore:"accountId" json:"accountId"`
	CategoryID  string    `firestore:"categoryId,omitempty" json:"categoryId,omitempty"`
	Date        string    `firestore:"date" json:"date"` // YYYY-MM-DD
	Description string    `firestore:"description" json:"description"`
	AmountCents int64     `firestore:"amountCents" json:"amountCents"`
	Type        string    `firestore:"type" json:"type"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}

// ImportSessionStatus is the lifecycle state of an import run
type ImportSessionStatus string

const (
	ImportSessionStatusProcessing ImportSessionStatus = "processing"
	ImportSessionStatusCompleted  ImportSessionStatus = "completed"
	ImportSessionStatusError      ImportSessionStatus = "error"
)

// ImportSession records one statement import run
type ImportSession struct {
	ID               string              `firestore:"id" json:"id"`
	UserID           string              `firestore:"userId" json:"userId"`
	AccountID        string              `firestore:"accountId" json:"accountId"`
	FileName         string              `firestore:"fileName" json:"fileName"`
	Status           ImportSessionStatus `firestore:"status" json:"status"`
	Imported         int                 `firestore:"imported" json:"imported"`
	Skipped          int                 `firestore:"skipped" json:"skipped"`
	BalancesImported int                 `firestore:"balancesImported" json:"balancesImported"`
	BalancesSkipped  int                 `firestore:"balancesSkipped" json:"balancesSkipped"`
	Error            string              `firestore:"error,omitempty" json:"error,omitempty"`
	CompletedAt      *time.Time          `firestore:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt        time.Time           `firestore:"createdAt" json:"createdAt"`
}

// TransactionStore adapts the transactions collection to the reconciler's
// store interface, scoped to one user and account
type TransactionStore struct {
	client    *Client
	userID    string
	accountID string
}

// TransactionStore returns a reconciler store for the user's account
func (c *Client) TransactionStore(userID, accountID string) *TransactionStore {
	return &TransactionStore{client: c, userID: userID, accountID: accountID}
}

// ExistingFingerprints returns the subset of fingerprints already persisted
// for the account. Callers chunk the input to the store's "in" query limit.
func (s *TransactionStore) ExistingFingerprints(ctx context.Context, fingerprints []string) ([]string, error) {
	return s.client.existingFingerprints(ctx, s.client.collections.Transactions, s.accountID, fingerprints)
}

// PersistBatch writes the records as one atomic batch
func (s *TransactionStore) PersistBatch(ctx context.Context, records []domain.ParsedTransaction) error {
	collection := s.client.Firestore.Collection(s.client.collections.Transactions)
	batch := s.client.Firestore.Batch()
	now := time.Now()

	for i := range records {
		txn := &records[i]
		batch.Set(collection.NewDoc(), &Transaction{
			UserID:      s.userID,
			AccountID:   s.accountID,
			Date:        txn.DateISO(),
			Description: txn.Description,
			Details:     txn.Details,
			DocumentID:  txn.DocumentID,
			AmountCents: txn.AmountCents,
			Type:        string(txn.Type),
			Category:    txn.Category,
			ImportHash:  txn.ImportHash,
			CreatedAt:   now,
		})
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction batch: %w", err)
	}
	return nil
}

// BalanceStore adapts the balances collection to the reconciler's store
// interface, scoped to one user and account
type BalanceStore struct {
	client    *Client
	userID    string
	accountID string
}

// BalanceStore returns a reconciler store for the user's account
func (c *Client) BalanceStore(userID, accountID string) *BalanceStore {
	return &BalanceStore{client: c, userID: userID, accountID: accountID}
}

// ExistingFingerprints returns the subset of fingerprints already persisted
// for the account
func (s *BalanceStore) ExistingFingerprints(ctx context.Context, fingerprints []string) ([]string, error) {
	return s.client.existingFingerprints(ctx, s.client.collections.Balances, s.accountID, fingerprints)
}

// PersistBatch writes the records as one atomic batch
func (s *BalanceStore) PersistBatch(ctx context.Context, records []domain.ParsedBalance) error {
	collection := s.client.Firestore.Collection(s.client.collections.Balances)
	batch := s.client.Firestore.Batch()
	now := time.Now()

	for i := range records {
		bal := &records[i]
		batch.Set(collection.NewDoc(), &Balance{
			UserID:       s.userID,
			AccountID:    s.accountID,
			Date:         bal.DateISO(),
			BalanceCents: bal.BalanceCents,
			ImportHash:   bal.ImportHash,
			CreatedAt:    now,
		})
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit balance batch: %w", err)
	}
	return nil
}

// existingFingerprints runs one bounded "in" query against a collection
func (c *Client) existingFingerprints(ctx context.Context, collection, accountID string, fingerprints []string) ([]string, error) {
	if len(fingerprints) == 0 {
		return nil, nil
	}

	iter := c.Firestore.Collection(collection).
		Where("accountId", "==", accountID).
		Where("importHash", "in", fingerprints).
		Select("importHash").
		Documents(ctx)

	var found []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query fingerprints in %s: %w", collection, err)
		}

		if hash, ok := doc.Data()["importHash"].(string); ok {
			found = append(found, hash)
		}
	}

	return found, nil
}

// GetAccounts retrieves all accounts for a user
func (c *Client) GetAccounts(ctx context.Context, userID string) ([]*Account, error) {
	iter := c.Firestore.Collection(c.collections.Accounts).
		Where("userId", "==", userID).
		Documents(ctx)

	var accounts []*Account
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate accounts for user %s: %w", userID, err)
		}

		var acc Account
		if err := doc.DataTo(&acc); err != nil {
			return nil, fmt.Errorf("failed to parse account: %w", err)
		}
		accounts = append(accounts, &acc)
	}

	return accounts, nil
}

// CreateAccount creates a new account
func (c *Client) CreateAccount(ctx context.Context, acc *Account) error {
	if acc.ID == "" || acc.UserID == "" {
		return fmt.Errorf("account ID and user ID are required")
	}
	_, err := c.Firestore.Collection(c.collections.Accounts).Doc(acc.ID).Set(ctx, acc)
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", acc.ID, err)
	}
	return nil
}

// GetCategories retrieves all categories for a user
func (c *Client) GetCategories(ctx context.Context, userID string) ([]*Category, error) {
	iter := c.Firestore.Collection(c.collections.Categories).
		Where("userId", "==", userID).
		Documents(ctx)

	var categories []*Category
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate categories for user %s: %w", userID, err)
		}

		var cat Category
		if err := doc.DataTo(&cat); err != nil {
			return nil, fmt.Errorf("failed to parse category: %w", err)
		}
		categories = append(categories, &cat)
	}

	return categories, nil
}

// CreateCategory creates a new category
func (c *Client) CreateCategory(ctx context.Context, cat *Category) error {
	if cat.ID == "" || cat.UserID == "" {
		return fmt.Errorf("category ID and user ID are required")
	}
	_, err := c.Firestore.Collection(c.collections.Categories).Doc(cat.ID).Set(ctx, cat)
	if err != nil {
		return fmt.Errorf("failed to create category %s: %w", cat.ID, err)
	}
	return nil
}

// GetEntries retrieves all manual ledger entries for a user, newest first
func (c *Client) GetEntries(ctx context.Context, userID string) ([]*Entry, error) {
	iter := c.Firestore.Collection(c.collections.Entries).
		Where("userId", "==", userID).
		OrderBy("date", firestore.Desc).
		Documents(ctx)

	var entries []*Entry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate entries for user %s: %w", userID, err)
		}

		var entry Entry
		if err := doc.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("failed to parse entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

// CreateEntry creates a new manual ledger entry
func (c *Client) CreateEntry(ctx context.Context, entry *Entry) error {
	if entry.ID == "" || entry.UserID == "" {
		return fmt.Errorf("entry ID and user ID are required")
	}
	if !domain.ValidateTransactionType(domain.TransactionType(entry.Type)) {
		return fmt.Errorf("invalid entry type: %s", entry.Type)
	}
	_, err := c.Firestore.Collection(c.collections.Entries).Doc(entry.ID).Set(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", entry.ID, err)
	}
	return nil
}

// CreateImportSession creates a new import session
func (c *Client) CreateImportSession(ctx context.Context, session *ImportSession) error {
	if session.ID == "" || session.UserID == "" {
		return fmt.Errorf("session ID and user ID are required")
	}
	_, err := c.Firestore.Collection(c.collections.Sessions).Doc(session.ID).Set(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to create import session %s: %w", session.ID, err)
	}
	return nil
}

// UpdateImportSession overwrites an existing import session
func (c *Client) UpdateImportSession(ctx context.Context, session *ImportSession) error {
	_, err := c.Firestore.Collection(c.collections.Sessions).Doc(session.ID).Set(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to update import session %s: %w", session.ID, err)
	}
	return nil
}

// ListImportSessions retrieves recent import sessions for a user
func (c *Client) ListImportSessions(ctx context.Context, userID string) ([]*ImportSession, error) {
	iter := c.Firestore.Collection(c.collections.Sessions).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(50).
		Documents(ctx)

	var sessions []*ImportSession
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate import sessions for user %s: %w", userID, err)
		}

		var session ImportSession
		if err := doc.DataTo(&session); err != nil {
			return nil, fmt.Errorf("failed to parse import session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, nil
}

package revieweat

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SearchHistories interface {
	Create(ctx context.Context, entry *SearchHistory) (*SearchHistory, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*SearchHistory, error)
	Delete(ctx context.Context, userID, id int64) error
}

type searchHistories struct {
	db *bun.DB
}

var _ SearchHistories = (*searchHistories)(nil)

func NewSearchHistoriesRepository(db *bun.DB) SearchHistories {
	return &searchHistories{db: db}
}

func (s *searchHistories) Create(ctx context.Context, entry *SearchHistory) (*SearchHistory, error) {
	_, err := s.db.NewInsert().
		Model(entry).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, wrapStorageError(err, "failed to record search")
	}

	return entry, nil
}

// ListByUser returns the user's searches most recent first.
func (s *searchHistories) ListByUser(ctx context.Context, userID int64, limit int) ([]*SearchHistory, error) {
	records := []*SearchHistory{}

	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(normalizeLimit(limit)).
		Scan(ctx)

	if err != nil {
		return nil, wrapStorageError(err, "failed to list search history")
	}

	return records, nil
}

func (s *searchHistories) Delete(ctx context.Context, userID, id int64) error {
	record := &SearchHistory{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("search entry not found", errors.CategoryNotFound).
				WithCode(errors.CodeNotFound).
				WithMetadata(map[string]any{"id": id})
		}
		return wrapStorageError(err, "failed to load search entry")
	}

	if record.UserID != userID {
		return ErrOwnershipMismatch
	}

	_, err = s.db.NewDelete().
		Model((*SearchHistory)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return wrapStorageError(err, "failed to delete search entry")
	}

	return nil
}

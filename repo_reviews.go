package revieweat

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ReviewUpdate carries the mutable fields of a review. Nil fields are
// left untouched.
type ReviewUpdate struct {
	PlaceName    *string `json:"place_name,omitempty"`
	PlaceAddress *string `json:"place_address,omitempty"`
	ReviewDate   *string `json:"review_date,omitempty"`
	Rating       *int    `json:"rating,omitempty"`
	Companion    *string `json:"companion,omitempty"`
	ReviewText   *string `json:"review_text,omitempty"`
}

type Reviews interface {
	Create(ctx context.Context, review *Review) (*Review, error)
	CreateTx(ctx context.Context, tx bun.IDB, review *Review) (*Review, error)
	GetByID(ctx context.Context, id int64) (*Review, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Review, int, error)
	ListByPlace(ctx context.Context, userID int64, placeName string, limit, offset int) ([]*Review, int, error)
	Update(ctx context.Context, userID, id int64, patch ReviewUpdate) (*Review, error)
	Delete(ctx context.Context, userID, id int64) error
	AppendImagePaths(ctx context.Context, userID, id int64, paths []string) (*Review, error)
}

type reviews struct {
	db *bun.DB
}

var _ Reviews = (*reviews)(nil)

func NewReviewsRepository(db *bun.DB) Reviews {
	return &reviews{db: db}
}

func (r *reviews) Create(ctx context.Context, review *Review) (*Review, error) {
	return r.CreateTx(ctx, r.db, review)
}

func (r *reviews) CreateTx(ctx context.Context, tx bun.IDB, review *Review) (*Review, error) {
	if review.ImagePaths == nil {
		review.ImagePaths = []string{}
	}

	_, err := tx.NewInsert().
		Model(review).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, wrapStorageError(err, "failed to create review")
	}

	return review, nil
}

func (r *reviews) GetByID(ctx context.Context, id int64) (*Review, error) {
	record := &Review{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newReviewNotFound(id)
		}
		return nil, wrapStorageError(err, "failed to load review")
	}

	return record, nil
}

func (r *reviews) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Review, int, error) {
	records := []*Review{}

	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC")

	total, err := q.Limit(normalizeLimit(limit)).Offset(offset).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, wrapStorageError(err, "failed to list reviews")
	}

	return records, total, nil
}

func (r *reviews) ListByPlace(ctx context.Context, userID int64, placeName string, limit, offset int) ([]*Review, int, error) {
	records := []*Review{}

	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.place_name = ?", placeName).
		OrderExpr("?TableAlias.created_at DESC")

	total, err := q.Limit(normalizeLimit(limit)).Offset(offset).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, wrapStorageError(err, "failed to list reviews by place")
	}

	return records, total, nil
}

func (r *reviews) Update(ctx context.Context, userID, id int64, patch ReviewUpdate) (*Review, error) {
	record, err := r.ownedReview(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.PlaceName != nil {
		record.PlaceName = *patch.PlaceName
	}
	if patch.PlaceAddress != nil {
		record.PlaceAddress = *patch.PlaceAddress
	}
	if patch.ReviewDate != nil {
		record.ReviewDate = *patch.ReviewDate
	}
	if patch.Rating != nil {
		record.Rating = *patch.Rating
	}
	if patch.Companion != nil {
		record.Companion = *patch.Companion
	}
	if patch.ReviewText != nil {
		record.ReviewText = *patch.ReviewText
	}

	_, err = r.db.NewUpdate().
		Model(record).
		WherePK().
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, wrapStorageError(err, "failed to update review")
	}

	return record, nil
}

func (r *reviews) Delete(ctx context.Context, userID, id int64) error {
	if _, err := r.ownedReview(ctx, userID, id); err != nil {
		return err
	}

	_, err := r.db.NewDelete().
		Model((*Review)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return wrapStorageError(err, "failed to delete review")
	}

	return nil
}

func (r *reviews) AppendImagePaths(ctx context.Context, userID, id int64, paths []string) (*Review, error) {
	record, err := r.ownedReview(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	record.ImagePaths = append(record.ImagePaths, paths...)

	_, err = r.db.NewUpdate().
		Model(record).
		Column("image_paths", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, wrapStorageError(err, "failed to store review image paths")
	}

	return record, nil
}

func (r *reviews) ownedReview(ctx context.Context, userID, id int64) (*Review, error) {
	record, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.UserID != userID {
		return nil, ErrOwnershipMismatch
	}

	return record, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func newReviewNotFound(id int64) error {
	return errors.New("review not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{
			"id": id,
		})
}

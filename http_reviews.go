package revieweat

import (
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

type ReviewsController struct {
	Logger       Logger
	Repo         RepositoryManager
	Gate         Authenticator
	Config       Config
	ErrorHandler router.ErrorHandler
}

func NewReviewsController(repo RepositoryManager, gate Authenticator, cfg Config, errorHandler router.ErrorHandler) *ReviewsController {
	return &ReviewsController{
		Logger:       defLogger{},
		Repo:         repo,
		Gate:         gate,
		Config:       cfg,
		ErrorHandler: errorHandler,
	}
}

func (c *ReviewsController) WithLogger(logger Logger) *ReviewsController {
	c.Logger = logger
	return c
}

// RegisterReviewRoutes mounts the review endpoints. All of them are
// owner-scoped: a user only ever sees and mutates their own reviews.
func RegisterReviewRoutes(app RouteRegistrar, c *ReviewsController, protected router.MiddlewareFunc) {
	app.Get("/reviews", c.List, protected)
	app.Post("/reviews", c.Create, protected)
	app.Get("/reviews/place/:name", c.ListByPlace, protected)
	app.Get("/reviews/:id", c.Show, protected)
	app.Patch("/reviews/:id", c.Update, protected)
	app.Delete("/reviews/:id", c.Delete, protected)
}

// CreateReviewPayload is the review creation payload
type CreateReviewPayload struct {
	PlaceName    string `form:"place_name" json:"place_name"`
	PlaceAddress string `form:"place_address" json:"place_address"`
	ReviewDate   string `form:"review_date" json:"review_date"`
	Rating       int    `form:"rating" json:"rating"`
	Companion    string `form:"companion" json:"companion"`
	ReviewText   string `form:"review_text" json:"review_text"`
}

// Validate will validate the payload
func (r CreateReviewPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PlaceName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.PlaceAddress, validation.Length(0, 500)),
		validation.Field(&r.ReviewDate, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Companion, validation.Length(0, 100)),
		validation.Field(&r.ReviewText, validation.Length(0, 5000)),
	)
}

func (c *ReviewsController) Create(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	payload := new(CreateReviewPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse review payload"))
	}

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, validationError(err))
	}

	review := &Review{
		UserID:       user.ID,
		PlaceName:    payload.PlaceName,
		PlaceAddress: payload.PlaceAddress,
		ReviewDate:   payload.ReviewDate,
		Rating:       payload.Rating,
		Companion:    payload.Companion,
		ReviewText:   payload.ReviewText,
	}

	record, err := c.Repo.Reviews().Create(ctx.Context(), review)
	if err != nil {
		c.Logger.Error("create review error", "error", err)
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, record)
}

func (c *ReviewsController) List(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	limit := queryInt(ctx, "limit", 20)
	offset := queryInt(ctx, "offset", 0)

	records, total, err := c.Repo.Reviews().ListByUser(ctx.Context(), user.ID, limit, offset)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
		"total": total,
	})
}

func (c *ReviewsController) ListByPlace(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	placeName := ctx.Param("name")
	if placeName == "" {
		return c.ErrorHandler(ctx, errors.New("place name is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest))
	}

	limit := queryInt(ctx, "limit", 20)
	offset := queryInt(ctx, "offset", 0)

	records, total, err := c.Repo.Reviews().ListByPlace(ctx.Context(), user.ID, placeName, limit, offset)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
		"total": total,
	})
}

func (c *ReviewsController) Show(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	id, err := paramID(ctx, "id")
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	record, err := c.Repo.Reviews().GetByID(ctx.Context(), id)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if record.UserID != user.ID {
		return c.ErrorHandler(ctx, ErrOwnershipMismatch)
	}

	return ctx.JSON(router.StatusOK, record)
}

// UpdateReviewPayload carries the mutable review fields
type UpdateReviewPayload struct {
	PlaceName    *string `form:"place_name" json:"place_name"`
	PlaceAddress *string `form:"place_address" json:"place_address"`
	ReviewDate   *string `form:"review_date" json:"review_date"`
	Rating       *int    `form:"rating" json:"rating"`
	Companion    *string `form:"companion" json:"companion"`
	ReviewText   *string `form:"review_text" json:"review_text"`
}

// Validate will validate the payload
func (r UpdateReviewPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PlaceName, validation.Length(1, 200)),
		validation.Field(&r.PlaceAddress, validation.Length(0, 500)),
		validation.Field(&r.ReviewDate, validation.Date("2006-01-02")),
		validation.Field(&r.Rating, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Companion, validation.Length(0, 100)),
		validation.Field(&r.ReviewText, validation.Length(0, 5000)),
	)
}

func (c *ReviewsController) Update(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	id, err := paramID(ctx, "id")
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	payload := new(UpdateReviewPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse review payload"))
	}

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, validationError(err))
	}

	record, err := c.Repo.Reviews().Update(ctx.Context(), user.ID, id, ReviewUpdate{
		PlaceName:    payload.PlaceName,
		PlaceAddress: payload.PlaceAddress,
		ReviewDate:   payload.ReviewDate,
		Rating:       payload.Rating,
		Companion:    payload.Companion,
		ReviewText:   payload.ReviewText,
	})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (c *ReviewsController) Delete(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	id, err := paramID(ctx, "id")
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if err := c.Repo.Reviews().Delete(ctx.Context(), user.ID, id); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "review deleted",
	})
}

func (c *ReviewsController) authenticate(ctx router.Context) (*User, error) {
	if claims, ok := GetClaims(ctx.Context()); ok {
		return c.Gate.ResolveUser(ctx.Context(), claims)
	}
	raw, err := rawTokenFromContext(ctx, c.Config)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return c.Gate.Authenticate(ctx.Context(), raw)
}

func paramID(ctx router.Context, name string) (int64, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid identifier", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{name: raw})
	}
	return id, nil
}

func queryInt(ctx router.Context, name string, def int) int {
	raw := ctx.Query(name, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func validationError(err error) error {
	fields := FormatValidationErrorToMap(err)
	meta := make(map[string]any, len(fields))
	for k, v := range fields {
		meta[k] = v
	}

	return errors.New("validation failed", errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(meta)
}

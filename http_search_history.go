package revieweat

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

type SearchHistoryController struct {
	Logger       Logger
	Repo         RepositoryManager
	Gate         Authenticator
	Config       Config
	ErrorHandler router.ErrorHandler
}

func NewSearchHistoryController(repo RepositoryManager, gate Authenticator, cfg Config, errorHandler router.ErrorHandler) *SearchHistoryController {
	return &SearchHistoryController{
		Logger:       defLogger{},
		Repo:         repo,
		Gate:         gate,
		Config:       cfg,
		ErrorHandler: errorHandler,
	}
}

func (c *SearchHistoryController) WithLogger(logger Logger) *SearchHistoryController {
	c.Logger = logger
	return c
}

func RegisterSearchHistoryRoutes(app RouteRegistrar, c *SearchHistoryController, protected router.MiddlewareFunc) {
	app.Get("/search-history", c.List, protected)
	app.Post("/search-history", c.Create, protected)
	app.Delete("/search-history/:id", c.Delete, protected)
}

// CreateSearchPayload records one search
type CreateSearchPayload struct {
	Query   string `form:"query" json:"query"`
	IsPlace bool   `form:"is_place" json:"is_place"`
	Name    string `form:"name" json:"name"`
}

// Validate will validate the payload
func (r CreateSearchPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Name, validation.Length(0, 200)),
	)
}

func (c *SearchHistoryController) Create(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	payload := new(CreateSearchPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse search payload"))
	}

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, validationError(err))
	}

	entry := &SearchHistory{
		UserID:  user.ID,
		Query:   payload.Query,
		IsPlace: payload.IsPlace,
		Name:    payload.Name,
	}

	record, err := c.Repo.SearchHistories().Create(ctx.Context(), entry)
	if err != nil {
		c.Logger.Error("record search error", "error", err)
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, record)
}

func (c *SearchHistoryController) List(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	limit := queryInt(ctx, "limit", 20)

	records, err := c.Repo.SearchHistories().ListByUser(ctx.Context(), user.ID, limit)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
	})
}

func (c *SearchHistoryController) Delete(ctx router.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	id, err := paramID(ctx, "id")
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if err := c.Repo.SearchHistories().Delete(ctx.Context(), user.ID, id); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "search entry deleted",
	})
}

func (c *SearchHistoryController) authenticate(ctx router.Context) (*User, error) {
	if claims, ok := GetClaims(ctx.Context()); ok {
		return c.Gate.ResolveUser(ctx.Context(), claims)
	}
	raw, err := rawTokenFromContext(ctx, c.Config)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return c.Gate.Authenticate(ctx.Context(), raw)
}

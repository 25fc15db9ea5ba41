package revieweat

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageStore writes review images to local disk. Stored filenames are
// random so an uploaded name never touches the filesystem.
type ImageStore struct {
	dir    string
	logger Logger
}

func NewImageStore(dir string) (*ImageStore, error) {
	if dir == "" {
		dir = "uploads"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create upload directory")
	}

	_, logger := ResolveLogger("uploads", nil, nil)
	return &ImageStore{dir: dir, logger: logger}, nil
}

func (s *ImageStore) WithLogger(l Logger) *ImageStore {
	_, s.logger = ResolveLogger("uploads", nil, l)
	return s
}

// Dir returns the root upload directory.
func (s *ImageStore) Dir() string {
	return s.dir
}

// PathFor builds the stored path for an original filename.
func (s *ImageStore) PathFor(originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedImageExtensions[ext] {
		return "", errors.New("unsupported image type", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"extension": ext})
	}

	return filepath.Join(s.dir, uuid.NewString()+ext), nil
}

// Remove deletes a stored image, logging failures without surfacing them.
func (s *ImageStore) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove stored image", "path", path, "error", err)
	}
}

// NewReviewImageUploadHandler returns the fiber handler for
// POST /reviews/:id/images. It is registered natively on the fiber app
// because multipart file handling never crosses the router abstraction.
// The auth gate runs in-handler.
func NewReviewImageUploadHandler(gate Authenticator, reviews Reviews, store *ImageStore, cfg Config, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	scheme := "Bearer"
	if cfg != nil && cfg.GetAuthScheme() != "" {
		scheme = cfg.GetAuthScheme()
	}

	return func(c *fiber.Ctx) error {
		raw, err := bearerFromHeader(c.Get(fiber.HeaderAuthorization), scheme)
		if err != nil {
			c.Set("WWW-Authenticate", scheme)
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication failed",
			})
		}

		user, err := gate.Authenticate(c.Context(), raw)
		if err != nil {
			if IsStorageUnavailable(err) {
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "service temporarily unavailable",
				})
			}
			c.Set("WWW-Authenticate", scheme)
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication failed",
			})
		}

		reviewID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || reviewID <= 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid review id",
			})
		}

		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "expected multipart form data",
			})
		}

		files := form.File["images"]
		if len(files) == 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "no images provided",
			})
		}

		stored := make([]string, 0, len(files))
		for _, file := range files {
			dst, err := store.PathFor(file.Filename)
			if err != nil {
				cleanupStored(store, stored)
				return c.Status(http.StatusBadRequest).JSON(fiber.Map{
					"error": fmt.Sprintf("unsupported image: %s", file.Filename),
				})
			}

			if err := c.SaveFile(file, dst); err != nil {
				logger.Error("failed to save uploaded image", "error", err, "review_id", reviewID)
				cleanupStored(store, stored)
				return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to store image",
				})
			}

			stored = append(stored, dst)
		}

		record, err := reviews.AppendImagePaths(c.Context(), user.ID, reviewID, stored)
		if err != nil {
			cleanupStored(store, stored)

			var richErr *errors.Error
			if errors.As(err, &richErr) {
				switch richErr.Category {
				case errors.CategoryNotFound:
					return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "review not found"})
				case errors.CategoryAuthz:
					return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "review owned by another user"})
				}
			}

			logger.Error("failed to attach images to review", "error", err, "review_id", reviewID)
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service temporarily unavailable",
			})
		}

		return c.Status(http.StatusCreated).JSON(record)
	}
}

func cleanupStored(store *ImageStore, paths []string) {
	for _, p := range paths {
		store.Remove(p)
	}
}

func bearerFromHeader(header, scheme string) (string, error) {
	if header == "" {
		return "", ErrAuthenticationFailed
	}

	l := len(scheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], scheme) {
		return strings.TrimSpace(header[l:]), nil
	}

	return "", ErrAuthenticationFailed
}

package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"vidstream_backend/internal/model"
	"vidstream_backend/pkg/utils/jwt"
)

// DownloadController abonelik kapısının arkasındaki içerik uçları. Film
// kataloğu bu sistemin dışında; detaylar istekle birlikte gelir.
type DownloadController struct {
	DB *gorm.DB
}

func NewDownloadController(db *gorm.DB) *DownloadController {
	return &DownloadController{DB: db}
}

const downloadValidityDays = 30

type DownloadMovieInput struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int    `json:"duration"`
	ReleaseYear  int    `json:"release_year"`
	Genre        string `json:"genre"`
	Description  string `json:"description"`
}

// DownloadMovie filmi indirilenlere ekler. Zaten indirilmişse geçerlilik
// süresi yenilenir.
func (dc *DownloadController) DownloadMovie(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	sub := c.Locals("subscription").(*model.UserSubscription)
	movieID := c.Params("movieId")

	input := new(DownloadMovieInput)
	if err := c.BodyParser(input); err != nil || input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Movie details are required",
		})
	}

	expiresAt := time.Now().AddDate(0, 0, downloadValidityDays)

	var existing model.Download
	err := dc.DB.Where("user_id = ? AND movie_id = ?", claims.UserID, movieID).First(&existing).Error
	if err == nil {
		existing.ExpiresAt = expiresAt
		existing.IsExpired = false
		if err := dc.DB.Save(&existing).Error; err != nil {
			return errorResponse(c, err)
		}

		return c.JSON(fiber.Map{
			"message":    "Movie already in your downloads",
			"download":   existing,
			"resolution": sub.Plan.Resolution,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, err)
	}

	download := model.Download{
		UserID:       claims.UserID,
		MovieID:      movieID,
		Title:        input.Title,
		ThumbnailURL: input.ThumbnailURL,
		Duration:     input.Duration,
		ReleaseYear:  input.ReleaseYear,
		Genre:        input.Genre,
		Description:  input.Description,
		ExpiresAt:    expiresAt,
	}
	if err := dc.DB.Create(&download).Error; err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Movie added to your downloads",
		"download":   download,
		"resolution": sub.Plan.Resolution,
	})
}

func (dc *DownloadController) GetMyDownloads(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var downloads []model.Download
	if err := dc.DB.Where("user_id = ?", claims.UserID).
		Order("created_at desc").
		Find(&downloads).Error; err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"results":   len(downloads),
		"downloads": downloads,
	})
}

func (dc *DownloadController) RemoveDownload(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	downloadID, err := c.ParamsInt("downloadId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid download id",
		})
	}

	result := dc.DB.Where("id = ? AND user_id = ?", downloadID, claims.UserID).
		Delete(&model.Download{})
	if result.Error != nil {
		return errorResponse(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Download not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Download removed",
	})
}

type PlayProgressInput struct {
	Progress *int `json:"progress"`
}

func (dc *DownloadController) UpdatePlayProgress(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	downloadID, err := c.ParamsInt("downloadId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid download id",
		})
	}

	input := new(PlayProgressInput)
	if err := c.BodyParser(input); err != nil || input.Progress == nil || *input.Progress < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "progress is required",
		})
	}

	result := dc.DB.Model(&model.Download{}).
		Where("id = ? AND user_id = ?", downloadID, claims.UserID).
		Update("play_progress", *input.Progress)
	if result.Error != nil {
		return errorResponse(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Download not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Progress updated",
	})
}

func (dc *DownloadController) CheckDownloadStatus(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	movieID := c.Params("movieId")

	var download model.Download
	err := dc.DB.Where("user_id = ? AND movie_id = ?", claims.UserID, movieID).First(&download).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{
				"downloaded": false,
			})
		}
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"downloaded": true,
		"expired":    download.IsExpired || download.ExpiresAt.Before(time.Now()),
		"download":   download,
	})
}

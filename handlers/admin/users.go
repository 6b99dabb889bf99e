package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/utils/response"
	"github.com/sahilchouksey/study-notes-bot/utils/validation"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Search  string `query:"search"`
	Blocked string `query:"blocked"`
}

// BlockUserRequest represents the request body for blocking or unblocking a chat user
type BlockUserRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

// ListUsers retrieves chat users with pagination and filters
// GET /api/v1/admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB()

	// Parse query parameters
	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	// Default pagination
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := db.WithContext(c.UserContext()).Model(&model.User{})

	if search := validation.SanitizeString(req.Search); search != "" {
		query = query.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if req.Blocked != "" {
		blocked, err := strconv.ParseBool(req.Blocked)
		if err != nil {
			return response.BadRequest(c, "blocked must be true or false")
		}
		query = query.Where("blocked = ?", blocked)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Order("id ASC").Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.SuccessWithMessage(c, "Users retrieved successfully", fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":        req.Page,
			"limit":       req.Limit,
			"total":       total,
			"total_pages": (total + int64(req.Limit) - 1) / int64(req.Limit),
		},
	})
}

// SetUserBlocked blocks or unblocks a chat user. Blocked users get no menus and no notifications.
// PUT /api/v1/admin/users/:id/block
func SetUserBlocked(c *fiber.Ctx, store database.Storage) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || userID == 0 {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req BlockUserRequest
	if err := c.BodyParser(&req); err != nil || req.Blocked == nil {
		return response.BadRequest(c, "Request body must contain a boolean 'blocked'")
	}

	users := services.NewUserService(store.GetDB())
	err = users.SetBlocked(c.UserContext(), uint(userID), *req.Blocked)
	if errors.Is(err, services.ErrNotFound) {
		return response.NotFound(c, "User not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	user, err := users.Get(c.UserContext(), uint(userID))
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch user")
	}
	return response.SuccessWithMessage(c, "User updated successfully", user)
}

package controllers

import (
	"admin-dashboard/middleware"
	"admin-dashboard/models"
	"admin-dashboard/services"
	"admin-dashboard/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	Users *services.UserService
}

func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{Users: users}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := utils.ParseBody(ctx, &req); err != nil {
		return utils.Error(ctx, err)
	}

	token, user, err := c.Users.Login(ctx.UserContext(), req.Username, req.Password)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.Message(ctx, "Login successful", loginResponse{Token: token, User: user})
}

// Me returns the user behind the bearer token.
func (c *AuthController) Me(ctx *fiber.Ctx) error {
	userID := middleware.UserID(ctx)
	if userID == 0 {
		return utils.Fail(ctx, fiber.StatusUnauthorized, "not logged in")
	}
	user, err := c.Users.GetUserByID(ctx.UserContext(), userID)
	if err != nil {
		return utils.Error(ctx, err)
	}
	return utils.OK(ctx, user)
}

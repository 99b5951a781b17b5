package authController

import (
	"context"
	"errors"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/configs"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/responses"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Controller struct {
	users *mongo.Collection
	log   *logrus.Logger
}

func NewController(users *mongo.Collection, log *logrus.Logger) *Controller {
	return &Controller{users: users, log: log}
}

func (h *Controller) SignUp(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var reqBody struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}

	if reqBody.Name == "" {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Name is required")
	}
	if utf8.RuneCountInString(reqBody.Password) < 8 {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Passwords must be 8 letters long")
	}
	if reqBody.Password != reqBody.ConfirmPassword {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Passwords do not match")
	}
	if !emailRegex.MatchString(reqBody.Email) {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Please enter a valid email address")
	}

	var existingUser models.User
	err := h.users.FindOne(ctx, bson.M{"email": reqBody.Email}).Decode(&existingUser)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.log.WithError(err).Error("signup: user lookup failed")
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error checking user existence")
	}
	if err == nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "User with same email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqBody.Password), bcrypt.DefaultCost)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error hashing password")
	}

	newUser := models.User{
		Id:        primitive.NewObjectID(),
		Name:      reqBody.Name,
		Email:     reqBody.Email,
		Password:  string(hashedPassword),
		Type:      models.UserTypeCustomer,
		Cart:      []models.CartItem{},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.users.InsertOne(ctx, newUser); err != nil {
		h.log.WithError(err).Error("signup: insert failed")
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error creating user")
	}

	token, err := signToken(&newUser)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error generating token")
	}

	return responses.OK(c, fiber.StatusCreated, "User created successfully", &fiber.Map{
		"token": token,
		"user":  newUser,
	})
}

func (h *Controller) SignIn(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var reqBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}

	var user models.User
	if err := h.users.FindOne(ctx, bson.M{"email": reqBody.Email}).Decode(&user); err != nil {
		// Same message for unknown email and wrong password.
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqBody.Password)); err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid email or password")
	}

	token, err := signToken(&user)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error generating token")
	}

	return responses.OK(c, fiber.StatusOK, "Signed in successfully", &fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *Controller) GetProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var user models.User
	if err := h.users.FindOne(ctx, bson.M{"_id": userObjectID}).Decode(&user); err != nil {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "User not found")
	}

	return responses.OK(c, fiber.StatusOK, "Profile fetched successfully", &fiber.Map{"user": user})
}

func signToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":   user.Id.Hex(),
		"role": user.Type,
		"exp":  time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(configs.EnvJWTSecret()))
}

package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	config "github.com/sourcecrowd/crowdfund-go/config"
	models "github.com/sourcecrowd/crowdfund-go/models"
	utils "github.com/sourcecrowd/crowdfund-go/utils"
)

// InvalidCredentialsMsg is returned for both unknown emails and wrong
// passwords, so a caller cannot probe which addresses are registered.
const InvalidCredentialsMsg = "Invalid credentials"

// ---------------- SIGNUP ----------------
func Signup(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		input.Name = strings.TrimSpace(input.Name)
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))
		if input.Name == "" || input.Email == "" || input.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := col.FindOne(ctx, bson.M{"email": input.Email}).Err()
		if err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			slog.Error("could not check existing user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user := models.User{
			ID:        primitive.NewObjectID(),
			Name:      input.Name,
			Email:     input.Email,
			Password:  hashed,
			CreatedAt: time.Now(),
		}

		if _, err := col.InsertOne(ctx, user); err != nil {
			// The unique index on email catches signups racing each other.
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
				return
			}
			slog.Error("could not create user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		token, err := utils.GenerateToken(user.ID.Hex(), cfg.JWTSecret)
		if err != nil {
			slog.Error("could not issue token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

// ---------------- LOGIN ----------------
func Login(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))

		col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		err := col.FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusBadRequest, gin.H{"error": InvalidCredentialsMsg})
				return
			}
			slog.Error("could not fetch user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !utils.CheckPassword(user.Password, input.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": InvalidCredentialsMsg})
			return
		}

		token, err := utils.GenerateToken(user.ID.Hex(), cfg.JWTSecret)
		if err != nil {
			slog.Error("could not issue token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
	}
}

// ---------------- ME ----------------
func Me(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		oid, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var user models.User
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("users").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&user)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

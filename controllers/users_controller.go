package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/sourcecrowd/crowdfund-go/config"
	models "github.com/sourcecrowd/crowdfund-go/models"
)

var last4Pattern = regexp.MustCompile(`^\d{4}$`)

// ---------------- PAYMENT METHODS ----------------
// AddPaymentMethod stores a processor token against the logged-in user.
// Raw card numbers never reach this service.
func AddPaymentMethod(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			Token       string `json:"token"`
			Brand       string `json:"brand"`
			Last4       string `json:"last4"`
			ExpiryMonth int    `json:"expiryMonth"`
			ExpiryYear  int    `json:"expiryYear"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if input.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}
		if !last4Pattern.MatchString(input.Last4) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last4 must be exactly 4 digits"})
			return
		}
		if input.ExpiryMonth < 1 || input.ExpiryMonth > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expiryMonth must be between 1 and 12"})
			return
		}
		if input.ExpiryYear < time.Now().Year() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expiryYear must not be in the past"})
			return
		}

		method := models.PaymentMethod{
			Token:       input.Token,
			Brand:       input.Brand,
			Last4:       input.Last4,
			ExpiryMonth: input.ExpiryMonth,
			ExpiryYear:  input.ExpiryYear,
			AddedAt:     time.Now(),
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := col.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$push": bson.M{"payment_methods": method}},
		)
		if err != nil {
			slog.Error("could not add payment method", "user", uid, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "payment method added"})
	}
}

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
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/sourcecrowd/crowdfund-go/config"
	models "github.com/sourcecrowd/crowdfund-go/models"
	utils "github.com/sourcecrowd/crowdfund-go/utils"
)

// ---------------- CREATE ----------------
func CreateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name         string        `json:"name"`
			Pitch        string        `json:"pitch"`
			Description  string        `json:"description"`
			MoneyUsage   string        `json:"moneyUsage"`
			AmountNeeded models.Amount `json:"amountNeeded"`
			Website      string        `json:"website"`
			EndDate      string        `json:"endDate"`
			Categories   []string      `json:"categories"`
			Email        string        `json:"email"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}

		// --- Required fields ---
		var missingFields []string
		required := map[string]bool{
			"name":         input.Name != "",
			"pitch":        input.Pitch != "",
			"description":  input.Description != "",
			"moneyUsage":   input.MoneyUsage != "",
			"amountNeeded": input.AmountNeeded != 0,
			"endDate":      input.EndDate != "",
			"email":        input.Email != "",
		}
		for _, field := range []string{"name", "pitch", "description", "moneyUsage", "amountNeeded", "endDate", "email"} {
			if !required[field] {
				missingFields = append(missingFields, field)
			}
		}
		if len(missingFields) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"message":       "Missing required fields",
				"missingFields": missingFields,
			})
			return
		}

		// --- Dates ---
		startDate := time.Now()
		endDate, err := models.ParseCampaignDate(input.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid endDate format, use RFC3339 or YYYY-MM-DD"})
			return
		}
		if !endDate.After(startDate) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "End date must be in the future"})
			return
		}

		// --- Amount ---
		if float64(input.AmountNeeded) < models.MinAmountNeeded {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Amount needed must be at least 100"})
			return
		}

		// --- Categories ---
		for _, cat := range input.Categories {
			if !models.ValidCategory(cat) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category provided"})
				return
			}
		}
		categories := input.Categories
		if categories == nil {
			categories = []string{}
		}

		campaign := models.Campaign{
			ID:              primitive.NewObjectID(),
			Name:            input.Name,
			Pitch:           input.Pitch,
			Description:     input.Description,
			MoneyUsage:      input.MoneyUsage,
			AmountNeeded:    float64(input.AmountNeeded),
			AmountCollected: 0,
			Contributions:   []models.Contribution{},
			Website:         input.Website,
			Status:          models.StatusActive,
			Email:           input.Email,
			StartDate:       startDate,
			EndDate:         endDate,
			Categories:      categories,
			CreatedAt:       startDate,
			UpdatedAt:       startDate,
		}

		if errs := campaign.Validate(); len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Validation error",
				"errors":  errs,
			})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, campaign); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Campaign name already exists"})
				return
			}
			slog.Error("could not create campaign", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		campaign.Derive(time.Now())
		c.JSON(http.StatusCreated, gin.H{
			"message":  "Campaign created successfully",
			"campaign": campaign,
		})
	}
}

// ---------------- LIST ----------------
func ListCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, bson.M{})
		if err != nil {
			slog.Error("could not fetch campaigns", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		var campaigns []models.Campaign
		if err := cursor.All(ctx, &campaigns); err != nil {
			slog.Error("could not decode campaigns", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		if len(campaigns) == 0 {
			c.JSON(http.StatusOK, []models.Campaign{})
			return
		}

		now := time.Now()
		latest := campaigns[0]
		var statuses strings.Builder
		for i := range campaigns {
			campaigns[i].Derive(now)
			statuses.WriteString(campaigns[i].Effective)
			if campaigns[i].UpdatedAt.After(latest.UpdatedAt) {
				latest = campaigns[i]
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt, statuses.String())
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, campaigns)
	}
}

// ---------------- GET ----------------
func GetCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found"})
			return
		}

		var campaign models.Campaign
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("campaigns").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&campaign)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found"})
				return
			}
			slog.Error("could not fetch campaign", "id", oid.Hex(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		campaign.Derive(time.Now())

		etag := utils.GenerateETag(campaign.ID, campaign.UpdatedAt, campaign.Effective)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, campaign)
	}
}

// ---------------- CONTRIBUTE ----------------
// ContributeToCampaign appends a contribution and bumps the running total
// in one atomic update, so concurrent contributions to the same campaign
// cannot lose each other's increments.
func ContributeToCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found"})
			return
		}

		var input struct {
			ContributorName string        `json:"contributorName"`
			Amount          models.Amount `json:"amount"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}

		if input.ContributorName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "contributorName is required"})
			return
		}
		if len(input.ContributorName) > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "contributorName must be at most 100 characters"})
			return
		}
		amount := float64(input.Amount)
		if amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Amount must be greater than 0"})
			return
		}

		contribution := models.Contribution{
			ContributorName: input.ContributorName,
			Amount:          amount,
			Date:            time.Now(),
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var updated models.Campaign
		err = col.FindOneAndUpdate(ctx,
			bson.M{"_id": oid},
			bson.M{
				"$push": bson.M{"contributions": contribution},
				"$inc":  bson.M{"amount_collected": amount},
				"$set":  bson.M{"updated_at": time.Now()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found"})
				return
			}
			slog.Error("could not record contribution", "id", oid.Hex(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		// The post-image total minus this contribution is the exact prior
		// total for this atomic update, so only the contribution that
		// first reaches the goal triggers the notification.
		if models.CrossedGoal(updated.AmountCollected, amount, updated.AmountNeeded) {
			notifyFunded(cfg, &updated)
		}

		updated.Derive(time.Now())
		c.JSON(http.StatusOK, updated)
	}
}

// notifyFunded dispatches the funded email. Failures are logged and
// swallowed: the contribution is already committed and must not appear to
// fail because of a mail outage.
func notifyFunded(cfg *config.Config, campaign *models.Campaign) {
	if cfg.Mailer == nil {
		slog.Warn("funded notification skipped, mail not configured",
			"campaign", campaign.Name)
		return
	}
	if err := cfg.Mailer.SendFundedNotification(campaign.Email, campaign.Name); err != nil {
		slog.Error("funded notification failed",
			"campaign", campaign.Name, "error", err)
		return
	}
	slog.Info("funded notification sent", "campaign", campaign.Name)
}

// ---------------- COVER IMAGE ----------------
func UploadCampaignImage(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found"})
			return
		}

		if !cfg.Cloud.Configured() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image uploads are not configured"})
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "image file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to open file"})
			return
		}
		defer file.Close()

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")

		fetchCtx, cancelFetch := context.WithTimeout(context.Background(), 5*time.Second)
		var existing models.Campaign
		err = col.FindOne(fetchCtx, bson.M{"_id": oid}).Decode(&existing)
		cancelFetch()
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found"})
			return
		}

		url, err := cfg.Cloud.UploadCampaignImage(file, fileHeader)
		if err != nil {
			slog.Error("image upload failed", "id", oid.Hex(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Image upload failed"})
			return
		}

		// The upload can run far longer than a database timeout, so the
		// write gets its own context opened right before the call.
		updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelUpdate()

		var updated models.Campaign
		err = col.FindOneAndUpdate(updateCtx,
			bson.M{"_id": oid},
			bson.M{"$set": bson.M{"image_url": url, "updated_at": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			slog.Error("could not store image url", "id", oid.Hex(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		// Best effort: old cover images should not pile up.
		if existing.ImageURL != "" && existing.ImageURL != url {
			if err := cfg.Cloud.DeleteImage(existing.ImageURL); err != nil {
				slog.Warn("could not delete previous image", "url", existing.ImageURL, "error", err)
			}
		}

		updated.Derive(time.Now())
		c.JSON(http.StatusOK, updated)
	}
}

package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Persisted campaign statuses. Display code must go through
// EffectiveStatus instead of reading Status directly.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// MinAmountNeeded is the smallest funding goal a campaign may declare.
const MinAmountNeeded = 100

// ValidCategories is the fixed category enumeration.
var ValidCategories = []string{"environment", "education", "health", "technology", "art", "community"}

type Campaign struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Pitch           string             `bson:"pitch" json:"pitch"`
	Description     string             `bson:"description" json:"description"`
	MoneyUsage      string             `bson:"money_usage" json:"moneyUsage"`
	AmountNeeded    float64            `bson:"amount_needed" json:"amountNeeded"`
	AmountCollected float64            `bson:"amount_collected" json:"amountCollected"`
	Contributions   []Contribution     `bson:"contributions" json:"contributions"`
	Website         string             `bson:"website,omitempty" json:"website,omitempty"`
	Status          string             `bson:"status" json:"status"` // draft, active, finished
	Email           string             `bson:"email" json:"email"`   // owner contact for the funded notification
	ImageURL        string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	StartDate       time.Time          `bson:"start_date" json:"startDate"`
	EndDate         time.Time          `bson:"end_date" json:"endDate"`
	Categories      []string           `bson:"categories" json:"categories"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`

	// Derived on every read, never persisted.
	Effective string `bson:"-" json:"effectiveStatus,omitempty"`
}

// Contribution is embedded in a campaign document. It has no identity of
// its own and is only ever appended, never updated or removed.
type Contribution struct {
	ContributorName string    `bson:"contributor_name" json:"contributorName"`
	Amount          float64   `bson:"amount" json:"amount"`
	Date            time.Time `bson:"date" json:"date"`
}

// Validate checks the schema-level constraints before a write. It returns
// every violation rather than stopping at the first, so a response can
// list them all.
func (c *Campaign) Validate() []string {
	var errs []string

	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	} else if len(c.Name) > 100 {
		errs = append(errs, "name must be at most 100 characters")
	}
	if strings.TrimSpace(c.Pitch) == "" {
		errs = append(errs, "pitch is required")
	} else if len(c.Pitch) > 200 {
		errs = append(errs, "pitch must be at most 200 characters")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	} else if len(c.Description) > 2000 {
		errs = append(errs, "description must be at most 2000 characters")
	}
	if strings.TrimSpace(c.MoneyUsage) == "" {
		errs = append(errs, "moneyUsage is required")
	} else if len(c.MoneyUsage) > 1000 {
		errs = append(errs, "moneyUsage must be at most 1000 characters")
	}
	if c.AmountNeeded < MinAmountNeeded {
		errs = append(errs, fmt.Sprintf("amountNeeded must be at least %d", MinAmountNeeded))
	}
	if c.AmountCollected < 0 {
		errs = append(errs, "amountCollected must not be negative")
	}
	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, "email is required")
	}
	switch c.Status {
	case StatusDraft, StatusActive, StatusFinished:
	default:
		errs = append(errs, fmt.Sprintf("invalid status %q", c.Status))
	}
	if !c.EndDate.After(c.StartDate) {
		errs = append(errs, "endDate must be after startDate")
	}
	for _, cat := range c.Categories {
		if !ValidCategory(cat) {
			errs = append(errs, fmt.Sprintf("invalid category %q", cat))
		}
	}

	return errs
}

// ValidCategory reports whether cat is part of the fixed enumeration.
func ValidCategory(cat string) bool {
	for _, v := range ValidCategories {
		if v == cat {
			return true
		}
	}
	return false
}

// EffectiveStatus derives the display status from the deadline and funding
// progress, overriding the persisted field. Every place that shows or
// filters campaigns must use this so list and detail views agree.
func EffectiveStatus(now, endDate time.Time, amountCollected, amountNeeded float64, stored string) string {
	if !endDate.After(now) || amountCollected >= amountNeeded {
		return StatusFinished
	}
	if stored == StatusDraft {
		return StatusDraft
	}
	return StatusActive
}

// Derive fills the EffectiveStatus field for serialization.
func (c *Campaign) Derive(now time.Time) {
	c.Effective = EffectiveStatus(now, c.EndDate, c.AmountCollected, c.AmountNeeded, c.Status)
}

// CrossedGoal reports whether the contribution that produced newTotal was
// the one that first reached the goal. The prior total is reconstructed
// from the post-image of the atomic update, so under concurrent
// contributions exactly one caller observes the crossing.
func CrossedGoal(newTotal, amount, amountNeeded float64) bool {
	prior := newTotal - amount
	return prior < amountNeeded && newTotal >= amountNeeded
}

// campaignDateLayouts are accepted for endDate, most specific first.
var campaignDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseCampaignDate parses an endDate supplied by a client, accepting
// RFC3339 or the plain date formats the forms send.
func ParseCampaignDate(s string) (time.Time, error) {
	for _, layout := range campaignDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use RFC3339 or YYYY-MM-DD", s)
}

// Amount is a float64 that also accepts numeric strings when decoding
// JSON, so a form that submits amountNeeded as "500" still stores a
// number.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s", data)
	}
	*a = Amount(f)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(a))
}

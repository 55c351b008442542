package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCampaign() Campaign {
	now := time.Now()
	return Campaign{
		Name:         "Save the Bees",
		Pitch:        "Urban beekeeping for everyone",
		Description:  "We install and maintain beehives on city rooftops.",
		MoneyUsage:   "Hives, bee colonies and training material",
		AmountNeeded: 1000,
		Status:       StatusActive,
		Email:        "owner@example.com",
		StartDate:    now,
		EndDate:      now.Add(30 * 24 * time.Hour),
		Categories:   []string{"environment", "community"},
	}
}

func TestCampaignValidateOK(t *testing.T) {
	c := validCampaign()
	assert.Empty(t, c.Validate())
}

func TestCampaignValidateViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Campaign)
		want   string
	}{
		{"missing name", func(c *Campaign) { c.Name = " " }, "name is required"},
		{"name too long", func(c *Campaign) { c.Name = strings.Repeat("x", 101) }, "name must be at most 100 characters"},
		{"pitch too long", func(c *Campaign) { c.Pitch = strings.Repeat("x", 201) }, "pitch must be at most 200 characters"},
		{"description too long", func(c *Campaign) { c.Description = strings.Repeat("x", 2001) }, "description must be at most 2000 characters"},
		{"money usage too long", func(c *Campaign) { c.MoneyUsage = strings.Repeat("x", 1001) }, "moneyUsage must be at most 1000 characters"},
		{"goal too small", func(c *Campaign) { c.AmountNeeded = 99 }, "amountNeeded must be at least 100"},
		{"negative collected", func(c *Campaign) { c.AmountCollected = -1 }, "amountCollected must not be negative"},
		{"missing email", func(c *Campaign) { c.Email = "" }, "email is required"},
		{"bad status", func(c *Campaign) { c.Status = "paused" }, `invalid status "paused"`},
		{"end before start", func(c *Campaign) { c.EndDate = c.StartDate.Add(-time.Hour) }, "endDate must be after startDate"},
		{"bad category", func(c *Campaign) { c.Categories = []string{"crypto"} }, `invalid category "crypto"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCampaign()
			tt.mutate(&c)
			assert.Contains(t, c.Validate(), tt.want)
		})
	}
}

func TestCampaignValidateCollectsAllViolations(t *testing.T) {
	c := Campaign{}
	errs := c.Validate()
	assert.GreaterOrEqual(t, len(errs), 5)
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)

	tests := []struct {
		name      string
		endDate   time.Time
		collected float64
		needed    float64
		stored    string
		want      string
	}{
		{"deadline passed", past, 0, 1000, StatusActive, StatusFinished},
		{"goal reached", future, 1000, 1000, StatusActive, StatusFinished},
		{"goal exceeded", future, 1500, 1000, StatusDraft, StatusFinished},
		{"stored draft", future, 100, 1000, StatusDraft, StatusDraft},
		{"stored active", future, 100, 1000, StatusActive, StatusActive},
		{"stale finished flag is overridden", future, 100, 1000, StatusFinished, StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveStatus(now, tt.endDate, tt.collected, tt.needed, tt.stored)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveFillsEffective(t *testing.T) {
	c := validCampaign()
	c.AmountCollected = c.AmountNeeded
	c.Derive(time.Now())
	assert.Equal(t, StatusFinished, c.Effective)
}

func TestCrossedGoal(t *testing.T) {
	tests := []struct {
		name     string
		newTotal float64
		amount   float64
		needed   float64
		want     bool
	}{
		{"crosses the goal", 1050, 150, 1000, true},
		{"lands exactly on the goal", 1000, 100, 1000, true},
		{"still below the goal", 950, 100, 1000, false},
		{"already funded before", 1200, 150, 1000, false},
		{"single contribution covers everything", 5000, 5000, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CrossedGoal(tt.newTotal, tt.amount, tt.needed))
		})
	}
}

// Under concurrent contributions the post-image totals form a strictly
// increasing sequence, so exactly one of them satisfies CrossedGoal.
func TestCrossedGoalFiresOncePerSequence(t *testing.T) {
	needed := 1000.0
	amounts := []float64{300, 400, 250, 200, 100}

	total := 0.0
	crossings := 0
	for _, a := range amounts {
		total += a
		if CrossedGoal(total, a, needed) {
			crossings++
		}
	}
	assert.Equal(t, 1, crossings)
}

func TestParseCampaignDate(t *testing.T) {
	for _, in := range []string{
		"2026-06-01T10:30:00Z",
		"2026-06-01 10:30:00",
		"2026-06-01 10:30",
		"2026-06-01",
	} {
		got, err := ParseCampaignDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2026, got.Year())
		assert.Equal(t, time.June, got.Month())
	}

	_, err := ParseCampaignDate("next tuesday")
	assert.Error(t, err)
}

func TestAmountAcceptsNumbersAndNumericStrings(t *testing.T) {
	var payload struct {
		Amount Amount `json:"amount"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 250.5}`), &payload))
	assert.Equal(t, Amount(250.5), payload.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "500"}`), &payload))
	assert.Equal(t, Amount(500), payload.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount": "lots"}`), &payload))
}

func TestAmountMarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(Amount(150))
	require.NoError(t, err)
	assert.Equal(t, "150", string(out))
}

func TestValidCategory(t *testing.T) {
	for _, cat := range ValidCategories {
		assert.True(t, ValidCategory(cat))
	}
	assert.False(t, ValidCategory("sports"))
	assert.False(t, ValidCategory(""))
}

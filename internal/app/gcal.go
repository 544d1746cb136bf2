package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"booking-service/internal/calendar"
	"booking-service/internal/config"
)

// GoogleCalendarConfig holds OAuth2 configuration for busy-sync.
type GoogleCalendarConfig struct {
	Config *oauth2.Config
}

// InitGoogleCalendarConfig builds the OAuth2 config, or nil when the
// integration is not configured.
func InitGoogleCalendarConfig(cfg config.Config) *GoogleCalendarConfig {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "" {
		return nil
	}
	return &GoogleCalendarConfig{
		Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{gcal.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// GoogleAuthHandler initiates the OAuth2 flow.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.GCal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := fmt.Sprintf("staff_%s_%d", c.Query("staff_id"), time.Now().Unix())
	url := a.GCal.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GoogleOAuth2CallbackHandler exchanges the authorization code for a
// token. The operator stores the token and presents it on sync calls.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.GCal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	token, err := a.GCal.Config.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}

	tokenJSON, _ := json.Marshal(token)
	c.JSON(http.StatusOK, gin.H{
		"message": "authorization successful",
		"state":   state,
		"token":   string(tokenJSON),
	})
}

// SyncStaffCalendarHandler marks blocks overlapping the staff member's
// external events as reserved. Events that race a concurrent booking are
// skipped; re-running the sync converges.
//
// POST /api/staff/:id/calendar/sync  (token JSON in X-Google-Token)
func (a *App) SyncStaffCalendarHandler(c *gin.Context) {
	if a.GCal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	staffID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}

	tokenStr := c.GetHeader("X-Google-Token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google token required in X-Google-Token header"})
		return
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token format"})
		return
	}

	ctx := c.Request.Context()
	client := a.GCal.Config.Client(ctx, &token)
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create calendar service"})
		return
	}

	calendarID := c.DefaultQuery("calendar_id", "primary")
	horizonDays := a.HorizonDays
	if horizonDays <= 0 {
		horizonDays = 14
	}
	from := time.Now().UTC()
	to := from.AddDate(0, 0, horizonDays)

	events, err := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(250).
		Do()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to retrieve events: %v", err)})
		return
	}

	reserved := 0
	skipped := 0
	for _, item := range events.Items {
		// All-day events (date only) block out nothing; the shop handles
		// those through the seeded horizon instead.
		if item.Start == nil || item.End == nil || item.Start.DateTime == "" || item.End.DateTime == "" {
			continue
		}
		evStart, err1 := time.Parse(time.RFC3339, item.Start.DateTime)
		evEnd, err2 := time.Parse(time.RFC3339, item.End.DateTime)
		if err1 != nil || err2 != nil || !evEnd.After(evStart) {
			continue
		}

		n, err := a.reserveOverlapping(c, staffID, evStart.UTC(), evEnd.UTC())
		if err != nil {
			if errors.Is(err, calendar.ErrConflict) {
				skipped++
				continue
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": CodeBookingInternal})
			return
		}
		reserved += n
	}

	a.Log.Info("external calendar synced",
		zap.Int("staff_id", staffID),
		zap.Int("blocks_reserved", reserved),
		zap.Int("events_skipped", skipped))
	c.JSON(http.StatusOK, gin.H{
		"blocks_reserved": reserved,
		"events_skipped":  skipped,
	})
}

func (a *App) reserveOverlapping(c *gin.Context, staffID int, from, to time.Time) (int, error) {
	ctx := c.Request.Context()
	blocks, err := a.Store.FreeBlocksOverlapping(ctx, staffID, from, to)
	if err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}

	tx, err := a.Store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := tx.Reserve(ctx, ids); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

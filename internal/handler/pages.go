package handler

import (
	"html/template"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

const (
	queryPostsGetAll          = "posts.getAll"
	queryProfileGetByUsername = "profile.getUserByUsername"
)

// dehydratedState carries the query results resolved while rendering, so the
// browser starts from the same data the server rendered.
type dehydratedState struct {
	Queries map[string]interface{} `json:"queries"`
}

func newDehydratedState() dehydratedState {
	return dehydratedState{Queries: make(map[string]interface{})}
}

type homePageData struct {
	SignedIn  bool
	Viewer    *model.UserProfile
	SignInURL string
	Feed      []*model.FeedEntry
	Error     string
	State     dehydratedState
}

type profilePageData struct {
	Profile *model.UserProfile
	Error   string
	State   dehydratedState
}

func (h *Handler) homePage(c *gin.Context) {
	data := homePageData{
		SignedIn:  h.getUserIDFromRequest(c) != "",
		SignInURL: h.cfg.SignInURL,
		State:     newDehydratedState(),
	}

	if userID := h.getUserIDFromRequest(c); userID != "" {
		// The composer still works without an avatar.
		viewer, err := h.services.Profile.GetByID(c.Request.Context(), userID)
		if err != nil {
			h.logger.Sugar().Errorf("failed to get signed in user(%s): %s", userID, err.Error())
		}
		data.Viewer = viewer
	}

	entries, err := h.services.Post.ListRecent(c.Request.Context())
	if err != nil {
		status, _ := responseFromError(err)
		h.logger.Sugar().Errorf("failed to render feed: %s", err.Error())
		data.Error = "Something went wrong..."
		c.HTML(status, "home.html", data)
		return
	}

	data.Feed = entries
	data.State.Queries[queryPostsGetAll] = entries
	c.HTML(http.StatusOK, "home.html", data)
}

func (h *Handler) profilePage(c *gin.Context) {
	data := profilePageData{State: newDehydratedState()}

	slug := c.Param("slug")
	if !strings.HasPrefix(slug, "@") || len(slug) < 2 {
		data.Error = "User not found"
		c.HTML(http.StatusNotFound, "profile.html", data)
		return
	}
	username := slug[1:]

	profile, err := h.services.Profile.GetByUsername(c.Request.Context(), username)
	if err != nil {
		status, _ := responseFromError(err)
		h.logger.Sugar().Errorf("failed to render profile(%s): %s", username, err.Error())
		data.Error = "Something went wrong..."
		c.HTML(status, "profile.html", data)
		return
	}

	data.State.Queries[queryProfileGetByUsername] = profile
	if profile == nil {
		data.Error = "404"
		c.HTML(http.StatusNotFound, "profile.html", data)
		return
	}

	data.Profile = profile
	c.HTML(http.StatusOK, "profile.html", data)
}

func (h *Handler) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"fromNow": func(t time.Time) string {
			return fromNow(h.cfg.Now(), t)
		},
	}
}

const day = 24 * time.Hour

// relTimeMagnitudes buckets elapsed time for "3 minutes ago" style labels.
// humanize truncates, so every singular bucket runs until two whole units.
var relTimeMagnitudes = []humanize.RelTimeMagnitude{
	{D: 45 * time.Second, Format: "a few seconds %s", DivBy: 1},
	{D: 2 * time.Minute, Format: "a minute %s", DivBy: 1},
	{D: 45 * time.Minute, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "an hour %s", DivBy: 1},
	{D: 22 * time.Hour, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * day, Format: "a day %s", DivBy: 1},
	{D: 26 * day, Format: "%d days %s", DivBy: day},
	{D: 60 * day, Format: "a month %s", DivBy: 1},
	{D: 320 * day, Format: "%d months %s", DivBy: 30 * day},
	{D: 730 * day, Format: "a year %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d years %s", DivBy: 365 * day},
}

func fromNow(now time.Time, t time.Time) string {
	// Store and app clocks may disagree slightly; never render "from now".
	if t.After(now) {
		t = now
	}
	return humanize.CustomRelTime(t, now, "ago", "from now", relTimeMagnitudes)
}

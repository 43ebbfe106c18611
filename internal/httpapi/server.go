package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/internal/config"
	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/core/services"
	"github.com/offthechainak/hourbank/pkg/db"
	"github.com/offthechainak/hourbank/pkg/schedule"
)

// Server exposes the clock engine and ledger over HTTP.
type Server struct {
	database *db.DB
	logger   *zap.Logger
	redis    *redis.Client
	shifts   []config.ShiftRule
}

// NewServer wires the API against a backing store. redisClient may be nil
// when no shared rate limit state is configured.
func NewServer(database *db.DB, logger *zap.Logger, redisClient *redis.Client, shifts []config.ShiftRule) *Server {
	return &Server{
		database: database,
		logger:   logger,
		redis:    redisClient,
		shifts:   shifts,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router(rateLimitPerMin int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(NewRateLimiter(rateLimitPerMin, s.redis, s.logger).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.healthz)

	v1 := r.Group("/v1")
	{
		v1.GET("/volunteers", s.listVolunteers)
		v1.POST("/volunteers", s.createVolunteer)
		v1.GET("/volunteers/:id", s.getVolunteer)
		v1.PATCH("/volunteers/:id", s.updateProfile)

		v1.POST("/volunteers/:id/clockin", s.clockIn)
		v1.POST("/volunteers/:id/clockout", s.clockOut)
		v1.GET("/volunteers/:id/session", s.session)

		v1.POST("/volunteers/:id/grants", s.grantHours)
		v1.POST("/volunteers/:id/redemptions", s.redeem)
		v1.GET("/volunteers/:id/transactions", s.listTransactions)
		v1.GET("/volunteers/:id/adjustments", s.listAdjustments)

		v1.GET("/items", s.listItems)
		v1.POST("/items", s.addItem)

		v1.GET("/calendar", s.calendar)
	}

	return r
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storeHealthy := true
	if _, err := s.database.Store().Get(ctx, db.CollectionVolunteers, "healthz-probe"); err != nil && !errors.Is(err, db.ErrNotFound) {
		storeHealthy = false
	}

	redisHealthy := true
	if s.redis != nil {
		redisHealthy = s.redis.Ping(ctx).Err() == nil
	}

	status := http.StatusOK
	if !storeHealthy || !redisHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "store": storeHealthy, "redis": redisHealthy})
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type volunteerResponse struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Avatar              string  `json:"avatar,omitempty"`
	Hours               float64 `json:"hours"`
	Phone               string  `json:"phone,omitempty"`
	Twitter             string  `json:"twitter,omitempty"`
	Facebook            string  `json:"facebook,omitempty"`
	Instagram           string  `json:"instagram,omitempty"`
	IsAdmin             bool    `json:"isAdmin"`
	ShowPhone           bool    `json:"showPhone"`
	ShowSocial          bool    `json:"showSocial"`
	CurrentClockEventID string  `json:"currentClockEventId,omitempty"`
}

func toVolunteerResponse(v *model.Volunteer) volunteerResponse {
	return volunteerResponse{
		ID:                  v.ID,
		Name:                v.Name,
		Email:               v.Email,
		Avatar:              v.Avatar,
		Hours:               v.Hours,
		Phone:               v.Phone,
		Twitter:             v.Twitter,
		Facebook:            v.Facebook,
		Instagram:           v.Instagram,
		IsAdmin:             v.IsAdmin,
		ShowPhone:           v.Privacy.ShowPhone,
		ShowSocial:          v.Privacy.ShowSocial,
		CurrentClockEventID: v.CurrentClockEventID,
	}
}

// redact strips contact details the volunteer chose not to share.
func redact(resp volunteerResponse, v *model.Volunteer) volunteerResponse {
	if !v.Privacy.ShowPhone {
		resp.Phone = ""
	}
	if !v.Privacy.ShowSocial {
		resp.Twitter = ""
		resp.Facebook = ""
		resp.Instagram = ""
	}
	return resp
}

func (s *Server) listVolunteers(c *gin.Context) {
	volunteers, err := s.database.ListVolunteers(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]volunteerResponse, 0, len(volunteers))
	for i := range volunteers {
		v := &volunteers[i]
		out = append(out, redact(toVolunteerResponse(v), v))
	}
	c.JSON(http.StatusOK, gin.H{"volunteers": out})
}

func (s *Server) getVolunteer(c *gin.Context) {
	volunteer, err := s.database.GetVolunteer(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVolunteerResponse(volunteer))
}

func (s *Server) createVolunteer(c *gin.Context) {
	var req struct {
		Name       string  `json:"name" binding:"required"`
		Email      string  `json:"email" binding:"required,email"`
		Avatar     string  `json:"avatar"`
		Hours      float64 `json:"hours"`
		Phone      string  `json:"phone"`
		Twitter    string  `json:"twitter"`
		Facebook   string  `json:"facebook"`
		Instagram  string  `json:"instagram"`
		IsAdmin    bool    `json:"isAdmin"`
		ShowPhone  bool    `json:"showPhone"`
		ShowSocial bool    `json:"showSocial"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	volunteer := &model.Volunteer{
		Name:      req.Name,
		Email:     req.Email,
		Avatar:    req.Avatar,
		Hours:     req.Hours,
		Phone:     req.Phone,
		Twitter:   req.Twitter,
		Facebook:  req.Facebook,
		Instagram: req.Instagram,
		IsAdmin:   req.IsAdmin,
		Privacy: model.PrivacySettings{
			ShowPhone:  req.ShowPhone,
			ShowSocial: req.ShowSocial,
		},
	}
	id, err := services.CreateVolunteer(c.Request.Context(), s.database, s.logger, volunteer)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "hours": volunteer.Hours})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		Email      string `json:"email" binding:"required,email"`
		Phone      string `json:"phone"`
		Twitter    string `json:"twitter"`
		Facebook   string `json:"facebook"`
		Instagram  string `json:"instagram"`
		ShowPhone  bool   `json:"showPhone"`
		ShowSocial bool   `json:"showSocial"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := &model.Volunteer{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Twitter:   req.Twitter,
		Facebook:  req.Facebook,
		Instagram: req.Instagram,
		Privacy: model.PrivacySettings{
			ShowPhone:  req.ShowPhone,
			ShowSocial: req.ShowSocial,
		},
	}
	if err := services.UpdateProfile(c.Request.Context(), s.database, s.logger, c.Param("id"), profile); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clockIn(c *gin.Context) {
	eventID, err := services.ClockIn(c.Request.Context(), s.database, s.logger, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"eventId": eventID})
}

func (s *Server) clockOut(c *gin.Context) {
	volunteerID := c.Param("id")

	var req struct {
		EventID string `json:"eventId"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	eventID := req.EventID
	if eventID == "" {
		event, err := services.ActiveSession(c.Request.Context(), s.database, volunteerID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		if event == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no open session"})
			return
		}
		eventID = event.ID
	}

	completed, err := services.ClockOut(c.Request.Context(), s.database, s.logger, volunteerID, eventID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"eventId":          completed.ID,
		"startTime":        completed.StartTime,
		"endTime":          completed.EndTime,
		"hoursAccumulated": completed.HoursAccumulated,
	})
}

func (s *Server) session(c *gin.Context) {
	event, err := services.ActiveSession(c.Request.Context(), s.database, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if event == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":    true,
		"eventId":   event.ID,
		"startTime": event.StartTime,
		"elapsed":   event.Elapsed().String(),
	})
}

func (s *Server) grantHours(c *gin.Context) {
	var req struct {
		Hours float64 `json:"hours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	credited, err := services.GrantHours(c.Request.Context(), s.database, s.logger, c.Param("id"), req.Hours)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"credited": credited})
}

func (s *Server) redeem(c *gin.Context) {
	var req struct {
		ItemID string `json:"itemId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")
	receipt, err := services.Redeem(c.Request.Context(), s.database, s.logger, c.Param("id"), req.ItemID, idempotencyKey)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transactionId": receipt.ID,
		"itemId":        receipt.ItemID,
		"hoursDeducted": receipt.HoursDeducted,
		"date":          receipt.Date,
	})
}

func (s *Server) listTransactions(c *gin.Context) {
	transactions, err := s.database.ListTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

func (s *Server) listAdjustments(c *gin.Context) {
	adjustments, err := s.database.ListAdjustments(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments})
}

func (s *Server) listItems(c *gin.Context) {
	items, err := s.database.ListStoreItems(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) addItem(c *gin.Context) {
	var req struct {
		Name string  `json:"name" binding:"required"`
		Cost float64 `json:"cost" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := services.AddStoreItem(c.Request.Context(), s.database, s.logger, req.Name, req.Cost)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) calendar(c *gin.Context) {
	count := 10
	if v := c.Query("count"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be a positive integer"})
			return
		}
		count = parsed
	}

	rules := make([]schedule.Rule, 0, len(s.shifts))
	for _, shift := range s.shifts {
		rules = append(rules, schedule.Rule{Name: shift.Name, RRule: shift.RRule})
	}

	occurrences, err := schedule.Upcoming(rules, time.Now(), count)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occurrences})
}

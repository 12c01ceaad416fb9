package controller

import (
	"errors"
	"scorehub/app_error"
	"scorehub/repository"
	"scorehub/scoring"
	"scorehub/service"
	"scorehub/utils"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SessionController struct {
	sessionService *service.SessionService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{sessionService: service.NewSessionService(db)}
}

func setupSessionController(db *gorm.DB) []RouteInfo {
	e := NewSessionController(db)
	basePath := "/sessions"
	routes := []RouteInfo{
		{Method: "POST", Path: "", HandlerFunc: e.createSessionHandler(), Authenticated: true},
		{Method: "GET", Path: "/pending", HandlerFunc: e.getPendingSessionsHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "PATCH", Path: "/status", HandlerFunc: e.bulkChangeStatusHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:session_id", HandlerFunc: e.getSessionHandler()},
		{Method: "POST", Path: "/:session_id/ends", HandlerFunc: e.recordEndHandler(), Authenticated: true},
		{Method: "PUT", Path: "/:session_id/ends/:end_id", HandlerFunc: e.amendEndHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:session_id/score", HandlerFunc: e.getSessionScoreHandler()},
		{Method: "PATCH", Path: "/:session_id/status", HandlerFunc: e.changeStatusHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:session_id/audit", HandlerFunc: e.getAuditTrailHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type SessionCreate struct {
	MemberId  int    `json:"member_id" binding:"required"`
	RoundId   int    `json:"round_id" binding:"required"`
	ShootDate string `json:"shoot_date" binding:"required"`
}

type ArrowResponse struct {
	ArrowNo int    `json:"arrow_no"`
	Value   string `json:"value"`
}

type EndResponse struct {
	Id           int             `json:"id"`
	RoundRangeId int             `json:"round_range_id"`
	EndNo        int             `json:"end_no"`
	Arrows       []ArrowResponse `json:"arrows"`
}

type SessionResponse struct {
	Id        int           `json:"id"`
	MemberId  int           `json:"member_id"`
	RoundId   int           `json:"round_id"`
	ShootDate string        `json:"shoot_date"`
	Status    string        `json:"status"`
	Ends      []EndResponse `json:"ends"`
}

func toEndResponse(end *repository.End) EndResponse {
	return EndResponse{
		Id:           end.Id,
		RoundRangeId: end.RoundRangeId,
		EndNo:        end.EndNo,
		Arrows: utils.Map(end.Arrows, func(arrow *repository.Arrow) ArrowResponse {
			return ArrowResponse{ArrowNo: arrow.ArrowNo, Value: arrow.Value}
		}),
	}
}

func toSessionResponse(session *repository.Session) SessionResponse {
	return SessionResponse{
		Id:        session.Id,
		MemberId:  session.MemberId,
		RoundId:   session.RoundId,
		ShootDate: session.ShootDate.Format("2006-01-02"),
		Status:    session.Status,
		Ends:      utils.Map(session.Ends, toEndResponse),
	}
}

type EndCreate struct {
	RoundRangeId int      `json:"round_range_id" binding:"required"`
	Arrows       []string `json:"arrows" binding:"required"`
}

type EndAmend struct {
	Arrows []string `json:"arrows" binding:"required"`
}

type StatusChange struct {
	Status string `json:"status" binding:"required"`
}

type BulkStatusChange struct {
	SessionIds []int  `json:"session_ids" binding:"required"`
	Status     string `json:"status" binding:"required"`
}

type EndScoreResponse struct {
	EndNo  int `json:"end_no"`
	Total  int `json:"total"`
	XCount int `json:"x_count"`
	Arrows int `json:"arrows"`
}

type RangeScoreResponse struct {
	RoundRangeId int                `json:"round_range_id"`
	Total        int                `json:"total"`
	XCount       int                `json:"x_count"`
	Ends         []EndScoreResponse `json:"ends"`
}

type SessionScoreResponse struct {
	SessionId int                  `json:"session_id"`
	Total     int                  `json:"total"`
	XCount    int                  `json:"x_count"`
	Ranges    []RangeScoreResponse `json:"ranges"`
}

func toSessionScoreResponse(score *scoring.SessionScore) SessionScoreResponse {
	return SessionScoreResponse{
		SessionId: score.SessionId,
		Total:     score.Total,
		XCount:    score.XCount,
		Ranges: utils.Map(score.Ranges, func(rangeScore scoring.RangeScore) RangeScoreResponse {
			return RangeScoreResponse{
				RoundRangeId: rangeScore.RoundRangeId,
				Total:        rangeScore.Total,
				XCount:       rangeScore.XCount,
				Ends: utils.Map(rangeScore.Ends, func(endScore scoring.EndScore) EndScoreResponse {
					return EndScoreResponse{
						EndNo:  endScore.EndNo,
						Total:  endScore.Total,
						XCount: endScore.XCount,
						Arrows: endScore.Arrows,
					}
				}),
			}
		}),
	}
}

type AuditResponse struct {
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
	ChangedById int    `json:"changed_by_id"`
	ChangedAt   string `json:"changed_at"`
}

// @Description Opens a new scoring session for a member
// @Tags session
// @Accept json
// @Produce json
// @Param session body SessionCreate true "Session to create"
// @Success 201 {object} SessionResponse
// @Router /sessions [post]
// @Security BearerAuth
func (e *SessionController) createSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionCreate SessionCreate
		if err := c.BindJSON(&sessionCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		shootDate, err := time.Parse("2006-01-02", sessionCreate.ShootDate)
		if err != nil {
			c.JSON(400, gin.H{"error": "shoot_date must be formatted as 2006-01-02"})
			return
		}
		session, err := e.sessionService.CreateSession(sessionCreate.MemberId, sessionCreate.RoundId, shootDate)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": err.Error()})
			} else {
				c.JSON(app_error.HTTPStatus(err, 400), gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(201, toSessionResponse(session))
	}
}

// @Description Fetches the sessions awaiting recorder review
// @Tags session
// @Produce json
// @Success 200 {array} SessionResponse
// @Router /sessions/pending [get]
// @Security BearerAuth
func (e *SessionController) getPendingSessionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := e.sessionService.GetPendingSessions()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(sessions, toSessionResponse))
	}
}

// @Description Fetches a session with its ends and arrows
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Success 200 {object} SessionResponse
// @Router /sessions/{session_id} [get]
func (e *SessionController) getSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, err := strconv.Atoi(c.Param("session_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		session, err := e.sessionService.GetSessionById(sessionId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Session not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toSessionResponse(session))
	}
}

// @Description Records the next end of arrows for a range
// @Tags session
// @Accept json
// @Produce json
// @Param session_id path int true "Session Id"
// @Param end body EndCreate true "End to record"
// @Success 201 {object} EndResponse
// @Router /sessions/{session_id}/ends [post]
// @Security BearerAuth
func (e *SessionController) recordEndHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, err := strconv.Atoi(c.Param("session_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var endCreate EndCreate
		if err := c.BindJSON(&endCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		end, err := e.sessionService.RecordEnd(sessionId, endCreate.RoundRangeId, endCreate.Arrows)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": err.Error()})
			} else {
				c.JSON(400, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(201, toEndResponse(end))
	}
}

// @Description Overwrites the arrows of an end
// @Tags session
// @Accept json
// @Produce json
// @Param session_id path int true "Session Id"
// @Param end_id path int true "End Id"
// @Param end body EndAmend true "New arrow values"
// @Success 200 {object} EndResponse
// @Router /sessions/{session_id}/ends/{end_id} [put]
// @Security BearerAuth
func (e *SessionController) amendEndHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, err := strconv.Atoi(c.Param("session_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		endId, err := strconv.Atoi(c.Param("end_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var endAmend EndAmend
		if err := c.BindJSON(&endAmend); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		end, err := e.sessionService.AmendEnd(sessionId, endId, endAmend.Arrows)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": err.Error()})
			} else {
				c.JSON(app_error.HTTPStatus(err, 400), gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toEndResponse(end))
	}
}

// @Description Aggregates a session into end, range and session totals
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Success 200 {object} SessionScoreResponse
// @Router /sessions/{session_id}/score [get]
func (e *SessionController) getSessionScoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, err := strconv.Atoi(c.Param("session_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		score, err := e.sessionService.GetSessionScore(sessionId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Session not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toSessionScoreResponse(score))
	}
}

// @Description Applies a status transition to a session
// @Tags session
// @Accept json
// @Param session_id path int true "Session Id"
// @Param status body StatusChange true "Target status"
// @Success 204
// @Router /sessions/{session_id}/status [patch]
// @Security BearerAuth
func (e *SessionController) changeStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, err := strconv.Atoi(c.Param("session_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var statusChange StatusChange
		if err := c.BindJSON(&statusChange); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		claims := getClaims(c)
		if claims == nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		err = e.sessionService.ChangeStatus(sessionId, statusChange.Status, claims.MemberId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": err.Error()})
			} else {
				c.JSON(app_error.HTTPStatus(err, 400), gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(204, nil)
	}
}

// @Description Applies one status transition to many sessions
// @Tags session
// @Accept json
// @Produce json
// @Param change body BulkStatusChange true "Sessions and target status"
// @Success 200 {object} map[string]string "Per-session failures, empty when all succeeded"
// @Router /sessions/status [patch]
// @Security BearerAuth
func (e *SessionController) bulkChangeStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var bulkChange BulkStatusChange
		if err := c.BindJSON(&bulkChange); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		claims := getClaims(c)
		if claims == nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		failures := e.sessionService.BulkChangeStatus(bulkChange.SessionIds, bulkChange.Status, claims.MemberId)
		response := make(map[string]string)
		for sessionId, failure := range failures {
			response[strconv.Itoa(sessionId)] = failure.Error()
		}
		c.JSON(200, response)
	}
}

// @Description Fetches the status transition history of a session
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Success 200 {array} AuditResponse
// @Router /sessions/{session_id}/audit [get]
// @Security BearerAuth
func (e *SessionController) getAuditTrailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, err := strconv.Atoi(c.Param("session_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		trail, err := e.sessionService.GetAuditTrail(sessionId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(trail, func(audit *repository.SessionAudit) AuditResponse {
			return AuditResponse{
				OldStatus:   audit.OldStatus,
				NewStatus:   audit.NewStatus,
				ChangedById: audit.ChangedById,
				ChangedAt:   audit.ChangedAt.UTC().Format(time.RFC3339),
			}
		}))
	}
}

package controller

import (
	"scorehub/app_error"
	"scorehub/repository"
	"scorehub/service"
	"scorehub/utils"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MemberController struct {
	memberService  *service.MemberService
	sessionService *service.SessionService
	recordService  *service.RecordService
}

func NewMemberController(db *gorm.DB) *MemberController {
	return &MemberController{
		memberService:  service.NewMemberService(db),
		sessionService: service.NewSessionService(db),
		recordService:  service.NewRecordService(db),
	}
}

func setupMemberController(db *gorm.DB) []RouteInfo {
	e := NewMemberController(db)
	basePath := "/members"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getMembersHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "POST", Path: "", HandlerFunc: e.createMemberHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:member_id", HandlerFunc: e.getMemberHandler(), Authenticated: true},
		{Method: "PATCH", Path: "/:member_id", HandlerFunc: e.updateMemberHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:member_id/sessions", HandlerFunc: e.getMemberSessionsHandler(), Authenticated: true},
		{Method: "GET", Path: "/:member_id/pbs", HandlerFunc: e.getMemberPersonalBestsHandler(), Authenticated: true},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type MemberResponse struct {
	Id         int     `json:"id"`
	FullName   string  `json:"full_name"`
	BirthYear  int     `json:"birth_year"`
	GenderId   int     `json:"gender_id"`
	DivisionId *int    `json:"division_id"`
	IsRecorder bool    `json:"is_recorder"`
	AvNumber   *string `json:"av_number"`
}

func toMemberResponse(member *repository.Member) MemberResponse {
	return MemberResponse{
		Id:         member.Id,
		FullName:   member.FullName,
		BirthYear:  member.BirthYear,
		GenderId:   member.GenderId,
		DivisionId: member.DivisionId,
		IsRecorder: member.IsRecorder,
		AvNumber:   member.AvNumber,
	}
}

type MemberCreate struct {
	FullName   string `json:"full_name" binding:"required"`
	BirthYear  int    `json:"birth_year" binding:"required"`
	GenderId   int    `json:"gender_id" binding:"required"`
	DivisionId *int   `json:"division_id"`
	IsRecorder bool   `json:"is_recorder"`
}

func (m *MemberCreate) toModel() *repository.Member {
	return &repository.Member{
		FullName:   m.FullName,
		BirthYear:  m.BirthYear,
		GenderId:   m.GenderId,
		DivisionId: m.DivisionId,
		IsRecorder: m.IsRecorder,
	}
}

type MemberUpdate struct {
	FullName   string `json:"full_name"`
	BirthYear  int    `json:"birth_year"`
	GenderId   int    `json:"gender_id"`
	DivisionId *int   `json:"division_id"`
}

func (m *MemberUpdate) toModel() *repository.Member {
	return &repository.Member{
		FullName:   m.FullName,
		BirthYear:  m.BirthYear,
		GenderId:   m.GenderId,
		DivisionId: m.DivisionId,
	}
}

// @Description Fetches all club members
// @Tags member
// @Produce json
// @Success 200 {array} MemberResponse
// @Router /members [get]
// @Security BearerAuth
func (e *MemberController) getMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := e.memberService.GetAllMembers()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(members, toMemberResponse))
	}
}

// @Description Registers a club member
// @Tags member
// @Accept json
// @Produce json
// @Param member body MemberCreate true "Member to create"
// @Success 201 {object} MemberResponse
// @Router /members [post]
// @Security BearerAuth
func (e *MemberController) createMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var memberCreate MemberCreate
		if err := c.BindJSON(&memberCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		member, err := e.memberService.CreateMember(memberCreate.toModel())
		if err != nil {
			c.JSON(app_error.HTTPStatus(err, 400), gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, toMemberResponse(member))
	}
}

// @Description Gets a member by id
// @Tags member
// @Produce json
// @Param member_id path int true "Member Id"
// @Success 200 {object} MemberResponse
// @Router /members/{member_id} [get]
// @Security BearerAuth
func (e *MemberController) getMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberId, err := strconv.Atoi(c.Param("member_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		member, err := e.memberService.GetMemberById(memberId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Member not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toMemberResponse(member))
	}
}

// @Description Updates a member's registry data
// @Tags member
// @Accept json
// @Produce json
// @Param member_id path int true "Member Id"
// @Param member body MemberUpdate true "Member update"
// @Success 200 {object} MemberResponse
// @Router /members/{member_id} [patch]
// @Security BearerAuth
func (e *MemberController) updateMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberId, err := strconv.Atoi(c.Param("member_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var memberUpdate MemberUpdate
		if err := c.BindJSON(&memberUpdate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		member, err := e.memberService.UpdateMember(memberId, memberUpdate.toModel())
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Member not found"})
			} else {
				c.JSON(app_error.HTTPStatus(err, 400), gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toMemberResponse(member))
	}
}

type SessionSummaryResponse struct {
	Id           int    `json:"id"`
	RoundName    string `json:"round_name"`
	ShootDate    string `json:"shoot_date"`
	Status       string `json:"status"`
	EndsRecorded int    `json:"ends_recorded"`
	TotalEnds    int    `json:"total_ends"`
}

func toSessionSummaryResponse(session *repository.Session) SessionSummaryResponse {
	response := SessionSummaryResponse{
		Id:           session.Id,
		ShootDate:    session.ShootDate.Format(time.DateOnly),
		Status:       session.Status,
		EndsRecorded: len(session.Ends),
	}
	if session.Round != nil {
		response.RoundName = session.Round.RoundName
		response.TotalEnds = session.Round.TotalEnds()
	}
	return response
}

// @Description Fetches a member's sessions, newest first
// @Tags member
// @Produce json
// @Param member_id path int true "Member Id"
// @Success 200 {array} SessionSummaryResponse
// @Router /members/{member_id}/sessions [get]
// @Security BearerAuth
func (e *MemberController) getMemberSessionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberId, err := strconv.Atoi(c.Param("member_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		sessions, err := e.sessionService.GetSessionsForMember(memberId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(sessions, toSessionSummaryResponse))
	}
}

type PersonalBestResponse struct {
	RoundName  string `json:"round_name"`
	TotalScore int    `json:"total_score"`
	XCount     int    `json:"x_count"`
	ShootDate  string `json:"shoot_date"`
}

// @Description Fetches a member's best confirmed total per round
// @Tags member
// @Produce json
// @Param member_id path int true "Member Id"
// @Success 200 {array} PersonalBestResponse
// @Router /members/{member_id}/pbs [get]
// @Security BearerAuth
func (e *MemberController) getMemberPersonalBestsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberId, err := strconv.Atoi(c.Param("member_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		personalBests, err := e.recordService.GetPersonalBests(memberId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(personalBests, func(pb *service.PersonalBest) PersonalBestResponse {
			return PersonalBestResponse{
				RoundName:  pb.RoundName,
				TotalScore: pb.TotalScore,
				XCount:     pb.XCount,
				ShootDate:  pb.ShootDate.Format(time.DateOnly),
			}
		}))
	}
}

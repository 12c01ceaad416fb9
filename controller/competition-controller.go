package controller

import (
	"errors"
	"scorehub/repository"
	"scorehub/scoring"
	"scorehub/service"
	"scorehub/utils"
	"strconv"
	"time"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CompetitionController struct {
	competitionService *service.CompetitionService
}

func NewCompetitionController(db *gorm.DB) *CompetitionController {
	return &CompetitionController{competitionService: service.NewCompetitionService(db)}
}

func setupCompetitionController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewCompetitionController(db)
	basePath := "/competitions"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getCompetitionsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createCompetitionHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:competition_id", HandlerFunc: e.getCompetitionHandler()},
		{Method: "POST", Path: "/:competition_id/entries", HandlerFunc: e.addEntryHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "POST", Path: "/:competition_id/finalize", HandlerFunc: e.finalizeHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:competition_id/results", HandlerFunc: cache.CachePage(cacheStore, time.Minute, e.getResultsHandler())},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type CompetitionResponse struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	RoundId   *int   `json:"round_id"`
}

func toCompetitionResponse(competition *repository.Competition) CompetitionResponse {
	return CompetitionResponse{
		Id:        competition.Id,
		Name:      competition.Name,
		StartDate: competition.StartDate.Format("2006-01-02"),
		EndDate:   competition.EndDate.Format("2006-01-02"),
		RoundId:   competition.RoundId,
	}
}

type CompetitionCreate struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	RoundId   *int   `json:"round_id"`
}

func (c *CompetitionCreate) toModel() (*repository.Competition, error) {
	startDate, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return nil, errors.New("start_date must be formatted as 2006-01-02")
	}
	endDate, err := time.Parse("2006-01-02", c.EndDate)
	if err != nil {
		return nil, errors.New("end_date must be formatted as 2006-01-02")
	}
	return &repository.Competition{
		Name:      c.Name,
		StartDate: startDate,
		EndDate:   endDate,
		RoundId:   c.RoundId,
	}, nil
}

type EntryCreate struct {
	SessionId int `json:"session_id" binding:"required"`
}

type EntryResponse struct {
	Id            int  `json:"id"`
	CompetitionId int  `json:"competition_id"`
	SessionId     int  `json:"session_id"`
	CategoryId    int  `json:"category_id"`
	FinalTotal    *int `json:"final_total"`
	XCount        int  `json:"x_count"`
	Rank          *int `json:"rank"`
}

type ResultResponse struct {
	EntryId          int    `json:"entry_id"`
	MemberId         int    `json:"member_id"`
	MemberName       string `json:"member_name"`
	CategoryId       int    `json:"category_id"`
	CategoryLabel    string `json:"category_label"`
	Total            int    `json:"total"`
	XCount           int    `json:"x_count"`
	Rank             int    `json:"rank"`
	TieBreakRequired bool   `json:"tie_break_required"`
}

func toResultResponse(result *scoring.Result) ResultResponse {
	return ResultResponse{
		EntryId:          result.EntryId,
		MemberId:         result.MemberId,
		MemberName:       result.MemberName,
		CategoryId:       result.CategoryId,
		CategoryLabel:    result.CategoryLabel,
		Total:            result.Total,
		XCount:           result.XCount,
		Rank:             result.Rank,
		TieBreakRequired: result.TieBreakRequired,
	}
}

// @Description Fetches all competitions, newest first
// @Tags competition
// @Produce json
// @Success 200 {array} CompetitionResponse
// @Router /competitions [get]
func (e *CompetitionController) getCompetitionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitions, err := e.competitionService.GetAllCompetitions()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(competitions, toCompetitionResponse))
	}
}

// @Description Creates a competition
// @Tags competition
// @Accept json
// @Produce json
// @Param competition body CompetitionCreate true "Competition to create"
// @Success 201 {object} CompetitionResponse
// @Router /competitions [post]
// @Security BearerAuth
func (e *CompetitionController) createCompetitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var competitionCreate CompetitionCreate
		if err := c.BindJSON(&competitionCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		model, err := competitionCreate.toModel()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		competition, err := e.competitionService.CreateCompetition(model)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, toCompetitionResponse(competition))
	}
}

// @Description Fetches a competition
// @Tags competition
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {object} CompetitionResponse
// @Router /competitions/{competition_id} [get]
func (e *CompetitionController) getCompetitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitionId, err := strconv.Atoi(c.Param("competition_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		competition, err := e.competitionService.GetCompetitionById(competitionId, "Round")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Competition not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toCompetitionResponse(competition))
	}
}

// @Description Enters a session into a competition under the archer's resolved category
// @Tags competition
// @Accept json
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Param entry body EntryCreate true "Session to enter"
// @Success 201 {object} EntryResponse
// @Router /competitions/{competition_id}/entries [post]
// @Security BearerAuth
func (e *CompetitionController) addEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitionId, err := strconv.Atoi(c.Param("competition_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var entryCreate EntryCreate
		if err := c.BindJSON(&entryCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		entry, err := e.competitionService.AddEntry(competitionId, entryCreate.SessionId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": err.Error()})
			} else if errors.Is(err, scoring.ErrNoMatchingCategory) || errors.Is(err, scoring.ErrAmbiguousCategory) {
				c.JSON(409, gin.H{"error": err.Error()})
			} else {
				c.JSON(400, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(201, EntryResponse{
			Id:            entry.Id,
			CompetitionId: entry.CompetitionId,
			SessionId:     entry.SessionId,
			CategoryId:    entry.CategoryId,
			FinalTotal:    entry.FinalTotal,
			XCount:        entry.XCount,
			Rank:          entry.Rank,
		})
	}
}

// @Description Freezes totals and ranks for every confirmed entry
// @Tags competition
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {array} ResultResponse
// @Router /competitions/{competition_id}/finalize [post]
// @Security BearerAuth
func (e *CompetitionController) finalizeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitionId, err := strconv.Atoi(c.Param("competition_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		results, err := e.competitionService.GetResults(competitionId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Competition not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, utils.Map(results, toResultResponse))
	}
}

// @Description Recomputes and returns the ranked results per category
// @Tags competition
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {array} ResultResponse
// @Router /competitions/{competition_id}/results [get]
func (e *CompetitionController) getResultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitionId, err := strconv.Atoi(c.Param("competition_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		results, err := e.competitionService.GetResults(competitionId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Competition not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, utils.Map(results, toResultResponse))
	}
}

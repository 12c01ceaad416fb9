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

type ChampionshipController struct {
	championshipService *service.ChampionshipService
}

func NewChampionshipController(db *gorm.DB) *ChampionshipController {
	return &ChampionshipController{championshipService: service.NewChampionshipService(db)}
}

func setupChampionshipController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewChampionshipController(db)
	basePath := "/championships"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getChampionshipsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createChampionshipHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:championship_id", HandlerFunc: e.getChampionshipHandler()},
		{Method: "GET", Path: "/:championship_id/standings", HandlerFunc: cache.CachePage(cacheStore, time.Minute, e.getStandingsHandler())},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type ChampionshipResponse struct {
	Id             int    `json:"id"`
	Name           string `json:"name"`
	PolicyYear     int    `json:"policy_year"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	BestN          int    `json:"best_n"`
	EligibleRounds []int  `json:"eligible_round_ids"`
}

func toChampionshipResponse(championship *repository.Championship) ChampionshipResponse {
	return ChampionshipResponse{
		Id:         championship.Id,
		Name:       championship.Name,
		PolicyYear: championship.PolicyYear,
		StartDate:  championship.StartDate.Format("2006-01-02"),
		EndDate:    championship.EndDate.Format("2006-01-02"),
		BestN:      championship.BestN,
		EligibleRounds: utils.Map(championship.EligibleRounds, func(round *repository.Round) int {
			return round.Id
		}),
	}
}

type ChampionshipCreate struct {
	Name             string `json:"name" binding:"required"`
	PolicyYear       int    `json:"policy_year" binding:"required"`
	StartDate        string `json:"start_date" binding:"required"`
	EndDate          string `json:"end_date" binding:"required"`
	BestN            int    `json:"best_n"`
	EligibleRoundIds []int  `json:"eligible_round_ids" binding:"required"`
}

func (c *ChampionshipCreate) toModel() (*repository.Championship, error) {
	startDate, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return nil, errors.New("start_date must be formatted as 2006-01-02")
	}
	endDate, err := time.Parse("2006-01-02", c.EndDate)
	if err != nil {
		return nil, errors.New("end_date must be formatted as 2006-01-02")
	}
	return &repository.Championship{
		Name:       c.Name,
		PolicyYear: c.PolicyYear,
		StartDate:  startDate,
		EndDate:    endDate,
		BestN:      c.BestN,
	}, nil
}

type QualifyingScoreResponse struct {
	SessionId int    `json:"session_id"`
	Total     int    `json:"total"`
	ShootDate string `json:"shoot_date"`
}

type StandingResponse struct {
	MemberId         int                       `json:"member_id"`
	MemberName       string                    `json:"member_name"`
	CategoryId       int                       `json:"category_id"`
	CategoryLabel    string                    `json:"category_label"`
	Score            int                       `json:"score"`
	Counted          []QualifyingScoreResponse `json:"counted"`
	Rank             int                       `json:"rank"`
	TieBreakRequired bool                      `json:"tie_break_required"`
}

func toStandingResponse(standing *scoring.Standing) StandingResponse {
	return StandingResponse{
		MemberId:      standing.MemberId,
		MemberName:    standing.MemberName,
		CategoryId:    standing.CategoryId,
		CategoryLabel: standing.CategoryLabel,
		Score:         standing.Score,
		Counted: utils.Map(standing.Counted, func(score scoring.QualifyingScore) QualifyingScoreResponse {
			return QualifyingScoreResponse{
				SessionId: score.SessionId,
				Total:     score.Total,
				ShootDate: score.ShootDate.Format("2006-01-02"),
			}
		}),
		Rank:             standing.Rank,
		TieBreakRequired: standing.TieBreakRequired,
	}
}

// @Description Fetches all championships, newest first
// @Tags championship
// @Produce json
// @Success 200 {array} ChampionshipResponse
// @Router /championships [get]
func (e *ChampionshipController) getChampionshipsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		championships, err := e.championshipService.GetAllChampionships()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(championships, toChampionshipResponse))
	}
}

// @Description Creates a championship over a set of eligible rounds
// @Tags championship
// @Accept json
// @Produce json
// @Param championship body ChampionshipCreate true "Championship to create"
// @Success 201 {object} ChampionshipResponse
// @Router /championships [post]
// @Security BearerAuth
func (e *ChampionshipController) createChampionshipHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var championshipCreate ChampionshipCreate
		if err := c.BindJSON(&championshipCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		model, err := championshipCreate.toModel()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		championship, err := e.championshipService.CreateChampionship(model, championshipCreate.EligibleRoundIds)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": err.Error()})
			} else {
				c.JSON(400, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(201, toChampionshipResponse(championship))
	}
}

// @Description Fetches a championship
// @Tags championship
// @Produce json
// @Param championship_id path int true "Championship Id"
// @Success 200 {object} ChampionshipResponse
// @Router /championships/{championship_id} [get]
func (e *ChampionshipController) getChampionshipHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		championshipId, err := strconv.Atoi(c.Param("championship_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		championship, err := e.championshipService.GetChampionshipById(championshipId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Championship not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toChampionshipResponse(championship))
	}
}

// @Description Computes the per-category ladders from confirmed sessions on eligible rounds
// @Tags championship
// @Produce json
// @Param championship_id path int true "Championship Id"
// @Success 200 {array} StandingResponse
// @Router /championships/{championship_id}/standings [get]
func (e *ChampionshipController) getStandingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		championshipId, err := strconv.Atoi(c.Param("championship_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		standings, err := e.championshipService.GetStandings(championshipId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Championship not found"})
			} else if errors.Is(err, scoring.ErrNoMatchingCategory) || errors.Is(err, scoring.ErrAmbiguousCategory) {
				c.JSON(409, gin.H{"error": err.Error()})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, utils.Map(standings, toStandingResponse))
	}
}

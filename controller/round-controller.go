package controller

import (
	"scorehub/repository"
	"scorehub/service"
	"scorehub/utils"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoundController struct {
	roundService *service.RoundService
}

func NewRoundController(db *gorm.DB) *RoundController {
	return &RoundController{roundService: service.NewRoundService(db)}
}

func setupRoundController(db *gorm.DB) []RouteInfo {
	e := NewRoundController(db)
	basePath := "/rounds"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getRoundsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createRoundHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/:round_id", HandlerFunc: e.getRoundHandler()},
		{Method: "PATCH", Path: "/:round_id", HandlerFunc: e.updateRoundHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type RangeResponse struct {
	Id           int `json:"id"`
	SeqNo        int `json:"seq_no"`
	DistanceM    int `json:"distance_m"`
	FaceSizeCm   int `json:"face_size_cm"`
	EndsPerRange int `json:"ends_per_range"`
	ArrowsPerEnd int `json:"arrows_per_end"`
}

type RoundResponse struct {
	Id        int             `json:"id"`
	RoundName string          `json:"round_name"`
	Ranges    []RangeResponse `json:"ranges"`
}

func toRoundResponse(round *repository.Round) RoundResponse {
	return RoundResponse{
		Id:        round.Id,
		RoundName: round.RoundName,
		Ranges: utils.Map(round.Ranges, func(roundRange *repository.RoundRange) RangeResponse {
			return RangeResponse{
				Id:           roundRange.Id,
				SeqNo:        roundRange.SeqNo,
				DistanceM:    roundRange.DistanceM,
				FaceSizeCm:   roundRange.FaceSizeCm,
				EndsPerRange: roundRange.EndsPerRange,
				ArrowsPerEnd: roundRange.ArrowsPerEnd,
			}
		}),
	}
}

type RangeCreate struct {
	SeqNo        int `json:"seq_no"`
	DistanceM    int `json:"distance_m" binding:"required"`
	FaceSizeCm   int `json:"face_size_cm" binding:"required"`
	EndsPerRange int `json:"ends_per_range" binding:"required"`
	ArrowsPerEnd int `json:"arrows_per_end"`
}

type RoundCreate struct {
	RoundName string        `json:"round_name" binding:"required"`
	Ranges    []RangeCreate `json:"ranges" binding:"required"`
}

func (r *RoundCreate) toModel() *repository.Round {
	return &repository.Round{
		RoundName: r.RoundName,
		Ranges: utils.Map(r.Ranges, func(rangeCreate RangeCreate) *repository.RoundRange {
			return &repository.RoundRange{
				SeqNo:        rangeCreate.SeqNo,
				DistanceM:    rangeCreate.DistanceM,
				FaceSizeCm:   rangeCreate.FaceSizeCm,
				EndsPerRange: rangeCreate.EndsPerRange,
				ArrowsPerEnd: rangeCreate.ArrowsPerEnd,
			}
		}),
	}
}

// @Description Fetches all round definitions
// @Tags round
// @Produce json
// @Success 200 {array} RoundResponse
// @Router /rounds [get]
func (e *RoundController) getRoundsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rounds, err := e.roundService.GetAllRounds()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(rounds, toRoundResponse))
	}
}

// @Description Creates a round with its ranges
// @Tags round
// @Accept json
// @Produce json
// @Param round body RoundCreate true "Round to create"
// @Success 201 {object} RoundResponse
// @Router /rounds [post]
// @Security BearerAuth
func (e *RoundController) createRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var roundCreate RoundCreate
		if err := c.BindJSON(&roundCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.CreateRound(roundCreate.toModel())
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, toRoundResponse(round))
	}
}

// @Description Gets a round with its ordered ranges
// @Tags round
// @Produce json
// @Param round_id path int true "Round Id"
// @Success 200 {object} RoundResponse
// @Router /rounds/{round_id} [get]
func (e *RoundController) getRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.GetRoundById(roundId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Round not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Renames a round; ranges are immutable once sessions exist
// @Tags round
// @Accept json
// @Produce json
// @Param round_id path int true "Round Id"
// @Param round body RoundCreate true "Round update"
// @Success 200 {object} RoundResponse
// @Router /rounds/{round_id} [patch]
// @Security BearerAuth
func (e *RoundController) updateRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var roundUpdate RoundCreate
		if err := c.BindJSON(&roundUpdate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.UpdateRound(roundId, roundUpdate.toModel())
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Round not found"})
			} else {
				c.JSON(400, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

package controller

import (
	"scorehub/config"
	"scorehub/service"
	"scorehub/utils"
	"strconv"
	"time"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RecordController struct {
	recordService *service.RecordService
}

func NewRecordController(db *gorm.DB) *RecordController {
	return &RecordController{recordService: service.NewRecordService(db)}
}

func setupRecordController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewRecordController(db)
	basePath := "/records"
	routes := []RouteInfo{
		{Method: "GET", Path: "/:round_id", HandlerFunc: cache.CachePage(cacheStore, 5*time.Minute, e.getClubRecordsHandler())},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type ClubRecordResponse struct {
	FullName     string `json:"full_name"`
	AgeClassCode string `json:"age_class_code"`
	GenderCode   string `json:"gender_code"`
	BowTypeCode  string `json:"bow_type_code"`
	TotalScore   int    `json:"total_score"`
	XCount       int    `json:"x_count"`
	ShootDate    string `json:"shoot_date"`
}

// @Description Fetches the best confirmed total per category on a round
// @Tags record
// @Produce json
// @Param round_id path int true "Round Id"
// @Param policy_year query int false "Policy year, defaults to the current one"
// @Success 200 {array} ClubRecordResponse
// @Router /records/{round_id} [get]
func (e *RecordController) getClubRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		policyYear := config.Env().PolicyYear
		if yearString := c.Query("policy_year"); yearString != "" {
			policyYear, err = strconv.Atoi(yearString)
			if err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
		}
		records, err := e.recordService.GetClubRecords(roundId, policyYear)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(records, func(record *service.ClubRecord) ClubRecordResponse {
			return ClubRecordResponse{
				FullName:     record.FullName,
				AgeClassCode: record.AgeClassCode,
				GenderCode:   record.GenderCode,
				BowTypeCode:  record.BowTypeCode,
				TotalScore:   record.TotalScore,
				XCount:       record.XCount,
				ShootDate:    record.ShootDate.Format("2006-01-02"),
			}
		}))
	}
}

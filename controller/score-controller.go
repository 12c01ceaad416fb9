package controller

import (
	"encoding/json"
	"net/http"
	"scorehub/scoring"
	"scorehub/utils"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type ScoreController struct {
	scoreService *scoring.ScoreService
	mu           sync.Mutex
	connections  map[int]map[*websocket.Conn]bool
}

func NewScoreController(db *gorm.DB) *ScoreController {
	controller := &ScoreController{
		scoreService: scoring.NewScoreService(db),
		connections:  make(map[int]map[*websocket.Conn]bool),
	}
	controller.StartResultUpdater()
	return controller
}

func setupScoreController(db *gorm.DB) []RouteInfo {
	e := NewScoreController(db)
	basePath := "/competitions/:competition_id/results"
	routes := []RouteInfo{
		{Method: "GET", Path: "/latest", HandlerFunc: e.getLatestResultsHandler()},
		{Method: "GET", Path: "/ws", HandlerFunc: e.WebSocketHandler},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow any host origin to connect to the websocket
		return true
	},
}

type ResultDiffResponse struct {
	Result    ResultResponse   `json:"result"`
	FieldDiff []string         `json:"field_diff"`
	DiffType  scoring.Difftype `json:"diff_type"`
}

func toResultMapResponse(resultMap scoring.ResultMap) map[string]ResultDiffResponse {
	response := make(map[string]ResultDiffResponse, len(resultMap))
	for id, difference := range resultMap {
		response[id] = ResultDiffResponse{
			Result:    toResultResponse(difference.Result),
			FieldDiff: difference.FieldDiff,
			DiffType:  difference.DiffType,
		}
	}
	return response
}

// @id ResultWebSocket
// @Description Websocket for live competition results. Once connected, the client receives result diffs as sessions are confirmed.
// @Tags scores
// @Router /competitions/{competition_id}/results/ws [get]
// @Param competition_id path int true "Competition Id"
// @Success 200 {object} ResultDiffResponse
func (e *ScoreController) WebSocketHandler(c *gin.Context) {
	competitionId, err := strconv.Atoi(c.Param("competition_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.NotFound(c.Writer, c.Request)
		return
	}
	defer conn.Close()

	if e.scoreService.LatestResultMap(competitionId) == nil {
		// no results yet is fine, the subscriber starts from empty
		e.scoreService.GetNewDiff(competitionId)
	}

	// Send the full current state to the new subscriber
	serialized, err := json.Marshal(toResultMapResponse(e.scoreService.LatestResultMap(competitionId)))
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, serialized); err != nil {
		return
	}

	e.mu.Lock()
	if _, ok := e.connections[competitionId]; !ok {
		e.connections[competitionId] = make(map[*websocket.Conn]bool)
	}
	e.connections[competitionId][conn] = true
	e.mu.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			e.mu.Lock()
			delete(e.connections[competitionId], conn)
			if len(e.connections[competitionId]) == 0 {
				delete(e.connections, competitionId)
			}
			e.mu.Unlock()
			return
		}
	}
}

func (e *ScoreController) StartResultUpdater() {
	go func() {
		for {
			e.mu.Lock()
			// recompute only for competitions with active subscribers
			competitionIds := utils.Keys(e.connections)
			e.mu.Unlock()
			for _, competitionId := range competitionIds {
				diff, err := e.scoreService.GetNewDiff(competitionId)
				if err != nil {
					continue
				}
				serializedDiff, err := json.Marshal(toResultMapResponse(diff))
				if err != nil {
					continue
				}
				e.mu.Lock()
				for conn := range e.connections[competitionId] {
					if err := conn.WriteMessage(websocket.TextMessage, serializedDiff); err != nil {
						conn.Close()
						delete(e.connections[competitionId], conn)
					}
				}
				e.mu.Unlock()
			}
			time.Sleep(5 * time.Second)
		}
	}()
}

// @id GetLatestResults
// @Description Fetches the last computed result state for a competition
// @Tags scores
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {object} ResultDiffResponse
// @Router /competitions/{competition_id}/results/latest [get]
func (e *ScoreController) getLatestResultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitionId, err := strconv.Atoi(c.Param("competition_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		results := e.scoreService.LatestResultMap(competitionId)
		if results == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No results computed for competition"})
			return
		}
		c.JSON(http.StatusOK, toResultMapResponse(results))
	}
}

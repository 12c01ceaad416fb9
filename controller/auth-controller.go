package controller

import (
	"scorehub/auth"
	"scorehub/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthController struct {
	memberService *service.MemberService
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{memberService: service.NewMemberService(db)}
}

func setupAuthController(db *gorm.DB) []RouteInfo {
	e := NewAuthController(db)
	basePath := "/auth"
	routes := []RouteInfo{
		{Method: "POST", Path: "/login", HandlerFunc: e.loginHandler()},
		{Method: "POST", Path: "/logout", HandlerFunc: e.logoutHandler()},
		{Method: "GET", Path: "/me", HandlerFunc: e.meHandler(), Authenticated: true},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type LoginRequest struct {
	MemberId int `json:"member_id" binding:"required"`
}

// @Description Logs a club member in by their member id and sets the auth cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login request"
// @Success 200 {object} MemberResponse
// @Router /auth/login [post]
func (e *AuthController) loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request LoginRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		member, err := e.memberService.GetMemberById(request.MemberId)
		if err != nil {
			c.JSON(401, gin.H{"error": "Member not found"})
			return
		}
		token, err := auth.CreateToken(member)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.SetCookie("auth", token, 60*60*24*21, "/", "", false, true)
		c.JSON(200, toMemberResponse(member))
	}
}

// @Description Clears the auth cookie
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (e *AuthController) logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("auth", "", -1, "/", "", false, true)
		c.Status(204)
	}
}

// @Description Returns the logged in member
// @Tags auth
// @Produce json
// @Success 200 {object} MemberResponse
// @Router /auth/me [get]
// @Security BearerAuth
func (e *AuthController) meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := getClaims(c)
		if claims == nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		member, err := e.memberService.GetMemberById(claims.MemberId)
		if err != nil {
			c.JSON(404, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(200, toMemberResponse(member))
	}
}

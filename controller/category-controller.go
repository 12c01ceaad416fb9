package controller

import (
	"errors"
	"scorehub/config"
	"scorehub/repository"
	"scorehub/scoring"
	"scorehub/service"
	"scorehub/utils"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryController struct {
	categoryService *service.CategoryService
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{categoryService: service.NewCategoryService(db)}
}

func setupCategoryController(db *gorm.DB) []RouteInfo {
	e := NewCategoryController(db)
	basePath := "/categories"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getCategoriesHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createCategoryHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
		{Method: "GET", Path: "/genders", HandlerFunc: e.getGendersHandler()},
		{Method: "GET", Path: "/divisions", HandlerFunc: e.getDivisionsHandler()},
		{Method: "GET", Path: "/age-classes", HandlerFunc: e.getAgeClassesHandler()},
		{Method: "GET", Path: "/resolve", HandlerFunc: e.resolveCategoryHandler()},
		{Method: "GET", Path: "/:category_id", HandlerFunc: e.getCategoryHandler()},
		{Method: "DELETE", Path: "/:category_id", HandlerFunc: e.deleteCategoryHandler(), Authenticated: true, RequiredRoles: []string{"recorder"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type CategoryResponse struct {
	Id         int    `json:"id"`
	PolicyYear int    `json:"policy_year"`
	AgeClassId int    `json:"age_class_id"`
	GenderId   int    `json:"gender_id"`
	DivisionId int    `json:"division_id"`
	Label      string `json:"label"`
}

func toCategoryResponse(category *repository.Category) CategoryResponse {
	return CategoryResponse{
		Id:         category.Id,
		PolicyYear: category.PolicyYear,
		AgeClassId: category.AgeClassId,
		GenderId:   category.GenderId,
		DivisionId: category.DivisionId,
		Label:      category.Label(),
	}
}

type GenderResponse struct {
	Id   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type DivisionResponse struct {
	Id          int    `json:"id"`
	BowTypeCode string `json:"bow_type_code"`
	Name        string `json:"name"`
}

type AgeClassResponse struct {
	Id           int    `json:"id"`
	Code         string `json:"code"`
	PolicyYear   int    `json:"policy_year"`
	MinBirthYear int    `json:"min_birth_year"`
	MaxBirthYear int    `json:"max_birth_year"`
}

type CategoryCreate struct {
	PolicyYear int `json:"policy_year" binding:"required"`
	AgeClassId int `json:"age_class_id" binding:"required"`
	GenderId   int `json:"gender_id" binding:"required"`
	DivisionId int `json:"division_id" binding:"required"`
}

func (c *CategoryCreate) toModel() *repository.Category {
	return &repository.Category{
		PolicyYear: c.PolicyYear,
		AgeClassId: c.AgeClassId,
		GenderId:   c.GenderId,
		DivisionId: c.DivisionId,
	}
}

func policyYearQuery(c *gin.Context) (int, error) {
	yearString := c.Query("policy_year")
	if yearString == "" {
		return config.Env().PolicyYear, nil
	}
	return strconv.Atoi(yearString)
}

// @Description Fetches the categories for a policy year
// @Tags category
// @Produce json
// @Param policy_year query int false "Policy year, defaults to the current one"
// @Success 200 {array} CategoryResponse
// @Router /categories [get]
func (e *CategoryController) getCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		policyYear, err := policyYearQuery(c)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		categories, err := e.categoryService.GetCategoriesForYear(policyYear)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(categories, toCategoryResponse))
	}
}

// @Description Creates a category for a policy year
// @Tags category
// @Accept json
// @Produce json
// @Param category body CategoryCreate true "Category to create"
// @Success 201 {object} CategoryResponse
// @Router /categories [post]
// @Security BearerAuth
func (e *CategoryController) createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var categoryCreate CategoryCreate
		if err := c.BindJSON(&categoryCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		category, err := e.categoryService.SaveCategory(categoryCreate.toModel())
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, toCategoryResponse(category))
	}
}

// @Description Fetches all genders
// @Tags category
// @Produce json
// @Success 200 {array} GenderResponse
// @Router /categories/genders [get]
func (e *CategoryController) getGendersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		genders, err := e.categoryService.GetGenders()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(genders, func(gender *repository.Gender) GenderResponse {
			return GenderResponse{Id: gender.Id, Code: gender.Code, Name: gender.Name}
		}))
	}
}

// @Description Fetches the active divisions
// @Tags category
// @Produce json
// @Success 200 {array} DivisionResponse
// @Router /categories/divisions [get]
func (e *CategoryController) getDivisionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		divisions, err := e.categoryService.GetActiveDivisions()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(divisions, func(division *repository.Division) DivisionResponse {
			return DivisionResponse{Id: division.Id, BowTypeCode: division.BowTypeCode, Name: division.Name}
		}))
	}
}

// @Description Fetches the age classes for a policy year
// @Tags category
// @Produce json
// @Param policy_year query int false "Policy year, defaults to the current one"
// @Success 200 {array} AgeClassResponse
// @Router /categories/age-classes [get]
func (e *CategoryController) getAgeClassesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		policyYear, err := policyYearQuery(c)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		ageClasses, err := e.categoryService.GetAgeClassesForYear(policyYear)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(ageClasses, func(ageClass *repository.AgeClass) AgeClassResponse {
			return AgeClassResponse{
				Id:           ageClass.Id,
				Code:         ageClass.Code,
				PolicyYear:   ageClass.PolicyYear,
				MinBirthYear: ageClass.MinBirthYear,
				MaxBirthYear: ageClass.MaxBirthYear,
			}
		}))
	}
}

// @Description Resolves a birth year, gender and division into a category
// @Tags category
// @Produce json
// @Param birth_year query int true "Birth year"
// @Param gender_id query int true "Gender Id"
// @Param division_id query int true "Division Id"
// @Param policy_year query int false "Policy year, defaults to the current one"
// @Success 200 {object} CategoryResponse
// @Router /categories/resolve [get]
func (e *CategoryController) resolveCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		birthYear, err := strconv.Atoi(c.Query("birth_year"))
		if err != nil {
			c.JSON(400, gin.H{"error": "birth_year is required"})
			return
		}
		genderId, err := strconv.Atoi(c.Query("gender_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "gender_id is required"})
			return
		}
		divisionId, err := strconv.Atoi(c.Query("division_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "division_id is required"})
			return
		}
		policyYear, err := policyYearQuery(c)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		category, err := e.categoryService.ResolveCategory(birthYear, genderId, divisionId, policyYear)
		if err != nil {
			if errors.Is(err, scoring.ErrNoMatchingCategory) {
				c.JSON(404, gin.H{"error": err.Error()})
			} else if errors.Is(err, scoring.ErrAmbiguousCategory) {
				c.JSON(409, gin.H{"error": err.Error()})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toCategoryResponse(category))
	}
}

// @Description Fetches a category
// @Tags category
// @Produce json
// @Param category_id path int true "Category Id"
// @Success 200 {object} CategoryResponse
// @Router /categories/{category_id} [get]
func (e *CategoryController) getCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		category, err := e.categoryService.GetCategoryById(categoryId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Category not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toCategoryResponse(category))
	}
}

// @Description Deletes a category
// @Tags category
// @Param category_id path int true "Category Id"
// @Success 204
// @Router /categories/{category_id} [delete]
// @Security BearerAuth
func (e *CategoryController) deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.categoryService.DeleteCategory(categoryId); err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Category not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(204, nil)
	}
}

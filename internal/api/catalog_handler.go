package api

import (
	"fmt"
	"net/http"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxImageSize caps product image uploads.
const maxImageSize = 5 << 20

// CatalogHandler serves trainers, membership plans, products and food.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- Request Structs ---

type TrainerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   string  `json:"email" binding:"omitempty,email"`
	Contact string  `json:"contact"`
	Age     int     `json:"age" binding:"min=0"`
	Cost    float64 `json:"cost" binding:"min=0"`
}

func (r TrainerRequest) toDomain(id primitive.ObjectID) *domain.Trainer {
	return &domain.Trainer{ID: id, Name: r.Name, Email: r.Email, Contact: r.Contact, Age: r.Age, Cost: r.Cost}
}

type PlanRequest struct {
	Duration    int                 `json:"duration" binding:"required,min=1"`
	Price       float64             `json:"price" binding:"min=0"`
	Category    domain.PlanCategory `json:"category" binding:"required"`
	Description string              `json:"description"`
}

func (r PlanRequest) toDomain(id primitive.ObjectID) *domain.MembershipPlan {
	return &domain.MembershipPlan{ID: id, Duration: r.Duration, Price: r.Price, Category: r.Category, Description: r.Description}
}

type ProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	CostPrice    float64 `json:"costPrice" binding:"min=0"`
	SellingPrice float64 `json:"sellingPrice" binding:"min=0"`
	MRP          float64 `json:"mrp" binding:"min=0"`
	Stock        int     `json:"stock" binding:"min=0"`
	Tax          float64 `json:"tax" binding:"min=0"`
	ImageURL     string  `json:"imgUrl" binding:"omitempty,url"`
}

func (r ProductRequest) toDomain(id primitive.ObjectID) *domain.Product {
	return &domain.Product{
		ID:           id,
		Name:         r.Name,
		CostPrice:    r.CostPrice,
		SellingPrice: r.SellingPrice,
		MRP:          r.MRP,
		Stock:        r.Stock,
		Tax:          r.Tax,
		ImageURL:     r.ImageURL,
	}
}

type FoodRequest struct {
	Name string  `json:"name" binding:"required"`
	Cost float64 `json:"cost" binding:"min=0"`
	Tax  float64 `json:"tax" binding:"min=0"`
}

func (r FoodRequest) toDomain(id primitive.ObjectID) *domain.FoodItem {
	return &domain.FoodItem{ID: id, Name: r.Name, Cost: r.Cost, Tax: r.Tax}
}

// bindBody binds the JSON body and, for updates, the id path parameter.
func bindBody(c *gin.Context, req interface{}, withID bool) (primitive.ObjectID, bool) {
	id := primitive.NilObjectID
	if withID {
		var ok bool
		if id, ok = pathID(c, "id"); !ok {
			return id, false
		}
	}
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return id, false
	}
	return id, true
}

func (h *CatalogHandler) deleteWith(c *gin.Context, del func(caller domain.Session, id primitive.ObjectID) error) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller, err := sessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := del(caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// reply writes v with status, or the error.
func reply(c *gin.Context, status int, v interface{}, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, v)
}

// --- Trainers ---

func (h *CatalogHandler) ListTrainers(c *gin.Context) {
	page, err := h.catalogService.ListTrainers(c.Request.Context(), listParams(c, 0, service.TrainerSortColumns, nil))
	reply(c, http.StatusOK, page, err)
}

func (h *CatalogHandler) GetTrainer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	trainer, err := h.catalogService.GetTrainer(c.Request.Context(), id)
	reply(c, http.StatusOK, trainer, err)
}

func (h *CatalogHandler) CreateTrainer(c *gin.Context) {
	var req TrainerRequest
	if _, ok := bindBody(c, &req, false); !ok {
		return
	}
	trainer, err := h.catalogService.CreateTrainer(c.Request.Context(), req.toDomain(primitive.NilObjectID))
	reply(c, http.StatusCreated, trainer, err)
}

func (h *CatalogHandler) UpdateTrainer(c *gin.Context) {
	var req TrainerRequest
	id, ok := bindBody(c, &req, true)
	if !ok {
		return
	}
	trainer, err := h.catalogService.UpdateTrainer(c.Request.Context(), req.toDomain(id))
	reply(c, http.StatusOK, trainer, err)
}

func (h *CatalogHandler) DeleteTrainer(c *gin.Context) {
	h.deleteWith(c, func(caller domain.Session, id primitive.ObjectID) error {
		return h.catalogService.DeleteTrainer(c.Request.Context(), caller, id)
	})
}

// --- Membership plans ---

func (h *CatalogHandler) ListPlans(c *gin.Context) {
	page, err := h.catalogService.ListPlans(c.Request.Context(), listParams(c, 0, service.PlanSortColumns, service.PlanFilterKeys))
	reply(c, http.StatusOK, page, err)
}

func (h *CatalogHandler) GetPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	plan, err := h.catalogService.GetPlan(c.Request.Context(), id)
	reply(c, http.StatusOK, plan, err)
}

func (h *CatalogHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if _, ok := bindBody(c, &req, false); !ok {
		return
	}
	plan, err := h.catalogService.CreatePlan(c.Request.Context(), req.toDomain(primitive.NilObjectID))
	reply(c, http.StatusCreated, plan, err)
}

func (h *CatalogHandler) UpdatePlan(c *gin.Context) {
	var req PlanRequest
	id, ok := bindBody(c, &req, true)
	if !ok {
		return
	}
	plan, err := h.catalogService.UpdatePlan(c.Request.Context(), req.toDomain(id))
	reply(c, http.StatusOK, plan, err)
}

func (h *CatalogHandler) DeletePlan(c *gin.Context) {
	h.deleteWith(c, func(caller domain.Session, id primitive.ObjectID) error {
		return h.catalogService.DeletePlan(c.Request.Context(), caller, id)
	})
}

// --- Products ---

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, err := h.catalogService.ListProducts(c.Request.Context(), listParams(c, 0, service.ProductSortColumns, nil))
	reply(c, http.StatusOK, page, err)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	reply(c, http.StatusOK, product, err)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if _, ok := bindBody(c, &req, false); !ok {
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), req.toDomain(primitive.NilObjectID))
	reply(c, http.StatusCreated, product, err)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	id, ok := bindBody(c, &req, true)
	if !ok {
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), req.toDomain(id))
	reply(c, http.StatusOK, product, err)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	h.deleteWith(c, func(caller domain.Session, id primitive.ObjectID) error {
		return h.catalogService.DeleteProduct(c.Request.Context(), caller, id)
	})
}

// UploadProductImage godoc
// @Summary Upload a product image
// @Description Multipart upload under the "image" field; jpeg, png or webp up to 5 MB.
// @Tags Products
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 400 {object} gin.H "Missing or unsupported file"
// @Failure 503 {object} gin.H "Object storage not configured"
// @Router /products/{id}/image [put]
func (h *CatalogHandler) UploadProductImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if header.Size > maxImageSize {
		abortWithError(c, http.StatusBadRequest, "image must be 5 MB or smaller")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	product, err := h.catalogService.UploadProductImage(c.Request.Context(), id, header.Header.Get("Content-Type"), file)
	reply(c, http.StatusOK, product, err)
}

// ProductImage redirects to the stored image.
func (h *CatalogHandler) ProductImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	url, err := h.catalogService.ProductImageURL(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// --- Food ---

func (h *CatalogHandler) ListFood(c *gin.Context) {
	page, err := h.catalogService.ListFood(c.Request.Context(), listParams(c, 0, service.FoodSortColumns, nil))
	reply(c, http.StatusOK, page, err)
}

func (h *CatalogHandler) GetFood(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.catalogService.GetFood(c.Request.Context(), id)
	reply(c, http.StatusOK, item, err)
}

func (h *CatalogHandler) CreateFood(c *gin.Context) {
	var req FoodRequest
	if _, ok := bindBody(c, &req, false); !ok {
		return
	}
	item, err := h.catalogService.CreateFood(c.Request.Context(), req.toDomain(primitive.NilObjectID))
	reply(c, http.StatusCreated, item, err)
}

func (h *CatalogHandler) UpdateFood(c *gin.Context) {
	var req FoodRequest
	id, ok := bindBody(c, &req, true)
	if !ok {
		return
	}
	item, err := h.catalogService.UpdateFood(c.Request.Context(), req.toDomain(id))
	reply(c, http.StatusOK, item, err)
}

func (h *CatalogHandler) DeleteFood(c *gin.Context) {
	h.deleteWith(c, func(caller domain.Session, id primitive.ObjectID) error {
		return h.catalogService.DeleteFood(c.Request.Context(), caller, id)
	})
}

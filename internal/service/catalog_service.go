package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/listutil"
	"tenzinsgym/pos/internal/repository"
	"tenzinsgym/pos/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sortable catalog columns.
var (
	TrainerSortColumns = []string{"code", "name", "cost"}
	PlanSortColumns    = []string{"duration", "price", "category"}
	PlanFilterKeys     = []string{"category"}
	ProductSortColumns = []string{"code", "name", "sellingPrice", "stock"}
	FoodSortColumns    = []string{"code", "name", "cost"}
)

// CatalogService manages everything the front desk can sell: trainers,
// membership plans, retail products and restaurant food.
type CatalogService interface {
	ListTrainers(ctx context.Context, params listutil.Params) (listutil.Page[domain.Trainer], error)
	GetTrainer(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error)
	CreateTrainer(ctx context.Context, trainer *domain.Trainer) (*domain.Trainer, error)
	UpdateTrainer(ctx context.Context, trainer *domain.Trainer) (*domain.Trainer, error)
	DeleteTrainer(ctx context.Context, caller domain.Session, id primitive.ObjectID) error

	ListPlans(ctx context.Context, params listutil.Params) (listutil.Page[domain.MembershipPlan], error)
	GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.MembershipPlan, error)
	CreatePlan(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error)
	UpdatePlan(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error)
	DeletePlan(ctx context.Context, caller domain.Session, id primitive.ObjectID) error

	ListProducts(ctx context.Context, params listutil.Params) (listutil.Page[domain.Product], error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, caller domain.Session, id primitive.ObjectID) error

	ListFood(ctx context.Context, params listutil.Params) (listutil.Page[domain.FoodItem], error)
	GetFood(ctx context.Context, id primitive.ObjectID) (*domain.FoodItem, error)
	CreateFood(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error)
	UpdateFood(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error)
	DeleteFood(ctx context.Context, caller domain.Session, id primitive.ObjectID) error

	// UploadProductImage stores an image for the product and records its
	// object key.
	UploadProductImage(ctx context.Context, id primitive.ObjectID, contentType string, body io.Reader) (*domain.Product, error)
	// ProductImageURL returns a link to the product image.
	ProductImageURL(ctx context.Context, id primitive.ObjectID) (string, error)
}

type catalogService struct {
	trainerRepo repository.TrainerRepository
	planRepo    repository.PlanRepository
	productRepo repository.ProductRepository
	foodRepo    repository.FoodRepository
	counters    repository.CounterRepository
	files       storage.FileStorage
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(
	trainerRepo repository.TrainerRepository,
	planRepo repository.PlanRepository,
	productRepo repository.ProductRepository,
	foodRepo repository.FoodRepository,
	counters repository.CounterRepository,
	files storage.FileStorage,
) CatalogService {
	if files == nil {
		files = storage.NewDisabledStorage()
	}
	return &catalogService{
		trainerRepo: trainerRepo,
		planRepo:    planRepo,
		productRepo: productRepo,
		foodRepo:    foodRepo,
		counters:    counters,
		files:       files,
	}
}

func lowerLess(a, b string) bool { return strings.ToLower(a) < strings.ToLower(b) }

// === Trainers ===

func (s *catalogService) ListTrainers(ctx context.Context, params listutil.Params) (listutil.Page[domain.Trainer], error) {
	trainers, err := s.trainerRepo.List(ctx)
	if err != nil {
		return listutil.Page[domain.Trainer]{}, err
	}
	trainers = listutil.Where(trainers, func(t domain.Trainer) bool {
		return listutil.MatchesAny(params.Search, t.Name, t.Code, t.Contact, t.Email)
	})
	switch params.Sort {
	case "name":
		listutil.SortBy(trainers, params.Desc, func(a, b domain.Trainer) bool { return lowerLess(a.Name, b.Name) })
	case "cost":
		listutil.SortBy(trainers, params.Desc, func(a, b domain.Trainer) bool { return a.Cost < b.Cost })
	default:
		listutil.SortBy(trainers, params.Desc, func(a, b domain.Trainer) bool { return a.Code < b.Code })
	}
	return listutil.Paginate(trainers, params.Page, params.PerPage), nil
}

func (s *catalogService) GetTrainer(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	t, err := s.trainerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTrainerNotFound)
	}
	return t, nil
}

func (s *catalogService) CreateTrainer(ctx context.Context, trainer *domain.Trainer) (*domain.Trainer, error) {
	if err := trainer.Validate(); err != nil {
		return nil, invalid(err)
	}
	code, err := nextCode(ctx, s.counters, trainerCodePrefix)
	if err != nil {
		return nil, err
	}
	trainer.Code = code
	if _, err := s.trainerRepo.Create(ctx, trainer); err != nil {
		return nil, err
	}
	return trainer, nil
}

func (s *catalogService) UpdateTrainer(ctx context.Context, trainer *domain.Trainer) (*domain.Trainer, error) {
	if err := trainer.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		return nil, notFound(err, ErrTrainerNotFound)
	}
	return s.GetTrainer(ctx, trainer.ID)
}

func (s *catalogService) DeleteTrainer(ctx context.Context, caller domain.Session, id primitive.ObjectID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.trainerRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrTrainerNotFound)
	}
	zap.S().Infow("trainer deleted", "trainer_id", id.Hex(), "by", caller.Email)
	return nil
}

// === Membership plans ===

func (s *catalogService) ListPlans(ctx context.Context, params listutil.Params) (listutil.Page[domain.MembershipPlan], error) {
	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return listutil.Page[domain.MembershipPlan]{}, err
	}
	category := domain.PlanCategory(strings.ToLower(params.Filter("category")))
	plans = listutil.Where(plans, func(p domain.MembershipPlan) bool {
		if category != "" && p.Category != category {
			return false
		}
		return listutil.MatchesAny(params.Search, p.Label(), string(p.Category), p.Description)
	})
	switch params.Sort {
	case "price":
		listutil.SortBy(plans, params.Desc, func(a, b domain.MembershipPlan) bool { return a.Price < b.Price })
	case "category":
		listutil.SortBy(plans, params.Desc, func(a, b domain.MembershipPlan) bool { return a.Category < b.Category })
	default:
		listutil.SortBy(plans, params.Desc, func(a, b domain.MembershipPlan) bool { return a.Duration < b.Duration })
	}
	return listutil.Paginate(plans, params.Page, params.PerPage), nil
}

func (s *catalogService) GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.MembershipPlan, error) {
	p, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	return p, nil
}

func (s *catalogService) CreatePlan(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error) {
	if err := plan.Validate(); err != nil {
		return nil, invalid(err)
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan edits a plan in place. Past sales keep their own copy of the
// plan label and price, so nothing cascades.
func (s *catalogService) UpdatePlan(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error) {
	if err := plan.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	return s.GetPlan(ctx, plan.ID)
}

func (s *catalogService) DeletePlan(ctx context.Context, caller domain.Session, id primitive.ObjectID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.planRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrPlanNotFound)
	}
	return nil
}

// === Products ===

func (s *catalogService) ListProducts(ctx context.Context, params listutil.Params) (listutil.Page[domain.Product], error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return listutil.Page[domain.Product]{}, err
	}
	products = listutil.Where(products, func(p domain.Product) bool {
		return listutil.MatchesAny(params.Search, p.Name, p.Code)
	})
	switch params.Sort {
	case "name":
		listutil.SortBy(products, params.Desc, func(a, b domain.Product) bool { return lowerLess(a.Name, b.Name) })
	case "sellingPrice":
		listutil.SortBy(products, params.Desc, func(a, b domain.Product) bool { return a.SellingPrice < b.SellingPrice })
	case "stock":
		listutil.SortBy(products, params.Desc, func(a, b domain.Product) bool { return a.Stock < b.Stock })
	default:
		listutil.SortBy(products, params.Desc, func(a, b domain.Product) bool { return a.Code < b.Code })
	}
	return listutil.Paginate(products, params.Page, params.PerPage), nil
}

func (s *catalogService) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return p, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, invalid(err)
	}
	code, err := nextCode(ctx, s.counters, productCodePrefix)
	if err != nil {
		return nil, err
	}
	product.Code = code
	if _, err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, invalid(err)
	}
	if product.ImageURL == "" {
		current, err := s.GetProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		product.ImageURL = current.ImageURL
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *catalogService) DeleteProduct(ctx context.Context, caller domain.Session, id primitive.ObjectID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrProductNotFound)
	}
	return nil
}

// === Food ===

func (s *catalogService) ListFood(ctx context.Context, params listutil.Params) (listutil.Page[domain.FoodItem], error) {
	items, err := s.foodRepo.List(ctx)
	if err != nil {
		return listutil.Page[domain.FoodItem]{}, err
	}
	items = listutil.Where(items, func(f domain.FoodItem) bool {
		return listutil.MatchesAny(params.Search, f.Name, f.Code)
	})
	switch params.Sort {
	case "name":
		listutil.SortBy(items, params.Desc, func(a, b domain.FoodItem) bool { return lowerLess(a.Name, b.Name) })
	case "cost":
		listutil.SortBy(items, params.Desc, func(a, b domain.FoodItem) bool { return a.Cost < b.Cost })
	default:
		listutil.SortBy(items, params.Desc, func(a, b domain.FoodItem) bool { return a.Code < b.Code })
	}
	return listutil.Paginate(items, params.Page, params.PerPage), nil
}

func (s *catalogService) GetFood(ctx context.Context, id primitive.ObjectID) (*domain.FoodItem, error) {
	f, err := s.foodRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrFoodNotFound)
	}
	return f, nil
}

func (s *catalogService) CreateFood(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error) {
	if err := item.Validate(); err != nil {
		return nil, invalid(err)
	}
	code, err := nextCode(ctx, s.counters, foodCodePrefix)
	if err != nil {
		return nil, err
	}
	item.Code = code
	if _, err := s.foodRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *catalogService) UpdateFood(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error) {
	if err := item.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.foodRepo.Update(ctx, item); err != nil {
		return nil, notFound(err, ErrFoodNotFound)
	}
	return s.GetFood(ctx, item.ID)
}

func (s *catalogService) DeleteFood(ctx context.Context, caller domain.Session, id primitive.ObjectID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.foodRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrFoodNotFound)
	}
	return nil
}

// === Product images ===

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

func (s *catalogService) UploadProductImage(ctx context.Context, id primitive.ObjectID, contentType string, body io.Reader) (*domain.Product, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, invalidf("unsupported image type %q", contentType)
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := product.ImageURL
	objectKey := path.Join("products", product.Code, fmt.Sprintf("%s.%s", uuid.NewString(), ext))
	if err := s.files.PutObject(ctx, objectKey, contentType, body); err != nil {
		return nil, err
	}
	product.ImageURL = objectKey
	if err := s.productRepo.Update(ctx, product); err != nil {
		if delErr := s.files.DeleteObject(ctx, objectKey); delErr != nil {
			zap.S().Warnw("orphaned product image", "key", objectKey, "error", delErr)
		}
		return nil, notFound(err, ErrProductNotFound)
	}
	if isObjectKey(previous) {
		if err := s.files.DeleteObject(ctx, previous); err != nil {
			zap.S().Warnw("failed to remove replaced product image", "key", previous, "error", err)
		}
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) ProductImageURL(ctx context.Context, id primitive.ObjectID) (string, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return "", err
	}
	if product.ImageURL == "" {
		return "", fmt.Errorf("product image %w", repository.ErrNotFound)
	}
	if !isObjectKey(product.ImageURL) {
		return product.ImageURL, nil
	}
	return s.files.GeneratePresignedDownloadURL(ctx, product.ImageURL, storage.DefaultPresignedURLExpiry)
}

// isObjectKey tells uploaded images apart from external links.
func isObjectKey(ref string) bool {
	return ref != "" && !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://")
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/listutil"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCatalogCodes(t *testing.T) {
	env := newTestEnv(t)
	first := env.addTrainer(t, "Tashi", 1500)
	second := env.addTrainer(t, "Dolma", 1800)
	product := env.addProduct(t, "Whey", 2400, 4)
	food := env.addFood(t, "Momo", 120)

	got := []string{first.Code, second.Code, product.Code, food.Code}
	want := []string{"T001", "T002", "PR001", "F001"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("code %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCatalogValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tests := []struct {
		name string
		run  func() error
	}{
		{"trainer without name", func() error { _, err := env.catalog.CreateTrainer(ctx, &domain.Trainer{Cost: 10}); return err }},
		{"plan of zero months", func() error {
			_, err := env.catalog.CreatePlan(ctx, &domain.MembershipPlan{Price: 10, Category: domain.PlanSingle})
			return err
		}},
		{"plan with unknown category", func() error {
			_, err := env.catalog.CreatePlan(ctx, &domain.MembershipPlan{Duration: 1, Price: 10, Category: "family"})
			return err
		}},
		{"product with negative stock", func() error {
			_, err := env.catalog.CreateProduct(ctx, &domain.Product{Name: "Bar", Stock: -1})
			return err
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestListPlansFilterAndSort(t *testing.T) {
	env := newTestEnv(t)
	env.addPlan(t, 12, 7000, domain.PlanSingle)
	env.addPlan(t, 1, 800, domain.PlanSingle)
	env.addPlan(t, 3, 3800, domain.PlanCouple)

	page, err := env.catalog.ListPlans(context.Background(), listutil.Params{Page: 1, Filters: map[string]string{"category": "Single"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 || page.Items[0].Duration != 1 || page.Items[1].Duration != 12 {
		t.Errorf("single plans = %+v", page.Items)
	}

	page, err = env.catalog.ListPlans(context.Background(), listutil.Params{Page: 1, Sort: "price", Desc: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 3 || page.Items[0].Price != 7000 {
		t.Errorf("price desc = %+v", page.Items)
	}
}

func TestCatalogDeleteNeedsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trainer := env.addTrainer(t, "Tashi", 1500)
	product := env.addProduct(t, "Whey", 2400, 4)

	if err := env.catalog.DeleteTrainer(ctx, staffSession, trainer.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff delete trainer: err = %v", err)
	}
	if err := env.catalog.DeleteProduct(ctx, staffSession, product.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff delete product: err = %v", err)
	}
	if err := env.catalog.DeleteProduct(ctx, adminSession, product.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := env.catalog.DeleteProduct(ctx, adminSession, product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("second delete: err = %v, want ErrProductNotFound", err)
	}
	if err := env.catalog.DeleteFood(ctx, adminSession, primitive.NewObjectID()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown food: err = %v, want not found", err)
	}
}

func TestUploadProductImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.addProduct(t, "Whey", 2400, 4)

	updated, err := env.catalog.UploadProductImage(ctx, product.ID, "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("UploadProductImage: %v", err)
	}
	firstKey := updated.ImageURL
	if !strings.HasPrefix(firstKey, "products/PR001/") || !strings.HasSuffix(firstKey, ".png") {
		t.Errorf("image key = %q", firstKey)
	}
	if string(env.files.objects[firstKey]) != "png-bytes" {
		t.Error("image bytes were not stored")
	}

	url, err := env.catalog.ProductImageURL(ctx, product.ID)
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://files.test/"+firstKey+"?signed" {
		t.Errorf("url = %q", url)
	}

	// Replacing the image removes the old object.
	replaced, err := env.catalog.UploadProductImage(ctx, product.ID, "image/jpeg", strings.NewReader("jpg-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := env.files.objects[firstKey]; ok {
		t.Error("previous image still stored")
	}
	if !strings.HasSuffix(replaced.ImageURL, ".jpg") {
		t.Errorf("replacement key = %q", replaced.ImageURL)
	}

	// A plain edit keeps the uploaded image.
	edit := *replaced
	edit.ImageURL = ""
	edit.Stock = 9
	kept, err := env.catalog.UpdateProduct(ctx, &edit)
	if err != nil {
		t.Fatal(err)
	}
	if kept.ImageURL != replaced.ImageURL || kept.Stock != 9 {
		t.Errorf("after edit image/stock = %q/%d", kept.ImageURL, kept.Stock)
	}
}

func TestUploadProductImageRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.addProduct(t, "Whey", 2400, 4)

	if _, err := env.catalog.UploadProductImage(ctx, product.ID, "application/pdf", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("pdf upload: err = %v, want ErrInvalidInput", err)
	}
	if _, err := env.catalog.UploadProductImage(ctx, primitive.NewObjectID(), "image/png", strings.NewReader("x")); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("unknown product: err = %v, want ErrProductNotFound", err)
	}
	if len(env.files.objects) != 0 {
		t.Errorf("rejected uploads stored %d objects", len(env.files.objects))
	}
	if _, err := env.catalog.ProductImageURL(ctx, product.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("no image: err = %v, want not found", err)
	}
}

func TestProductImageExternalURL(t *testing.T) {
	env := newTestEnv(t)
	product, err := env.catalog.CreateProduct(context.Background(), &domain.Product{
		Name: "Shaker", SellingPrice: 150, ImageURL: "https://cdn.example.com/shaker.png",
	})
	if err != nil {
		t.Fatal(err)
	}
	url, err := env.catalog.ProductImageURL(context.Background(), product.ID)
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://cdn.example.com/shaker.png" {
		t.Errorf("url = %q, want the external link unchanged", url)
	}
}

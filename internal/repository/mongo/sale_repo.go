package mongo

import (
	"context"
	"fmt"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const saleCollectionName = "sales"

// saleDocument is the flat row layout of the sales collection. Only the
// fields relevant to service_name are populated.
type saleDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	InvoiceID      string             `bson:"invoice_id"`
	ServiceName    string             `bson:"service_name"`
	MemberName     string             `bson:"member_name,omitempty"`
	MemberPhone    string             `bson:"member_phone,omitempty"`
	AmountPaid     float64            `bson:"amount_paid"`
	Discount       float64            `bson:"discount"`
	Quantity       int                `bson:"quantity"`
	Category       string             `bson:"category,omitempty"`
	PaymentMethod  string             `bson:"payment_method"`
	PaymentStatus  string             `bson:"payment_status"`
	TimeOfPurchase time.Time          `bson:"time_of_purchase"`

	// Membership
	MemberID   string     `bson:"member_id,omitempty"`
	MemberCode string     `bson:"member_code,omitempty"`
	PlanID     string     `bson:"plan_id,omitempty"`
	Plan       string     `bson:"membership_plan,omitempty"`
	StartDate  *time.Time `bson:"start_date,omitempty"`
	EndDate    *time.Time `bson:"end_date,omitempty"`
	JoiningFee float64    `bson:"joining_fee,omitempty"`
	Renewal    bool       `bson:"renewal,omitempty"`

	// Trainer assignment
	TrainerID   string `bson:"trainer_id,omitempty"`
	TrainerName string `bson:"trainer_name,omitempty"`

	// Cart sales. Older rows hold a JSON string here, newer ones an array.
	Items    interface{} `bson:"items_json,omitempty"`
	Subtotal float64     `bson:"subtotal,omitempty"`
}

func toSaleDocument(sale *domain.Sale) (*saleDocument, error) {
	doc := &saleDocument{
		InvoiceID:      sale.InvoiceID,
		ServiceName:    string(sale.Service),
		MemberName:     sale.MemberName,
		MemberPhone:    sale.MemberPhone,
		AmountPaid:     sale.AmountPaid,
		Discount:       sale.Discount,
		Quantity:       sale.Quantity,
		Category:       sale.Category,
		PaymentMethod:  sale.PaymentMethod,
		PaymentStatus:  string(sale.PaymentStatus),
		TimeOfPurchase: sale.TimeOfPurchase,
	}
	switch p := sale.Payload.(type) {
	case domain.MembershipPayload:
		doc.MemberID, doc.MemberCode, doc.PlanID, doc.Plan = p.MemberID, p.MemberCode, p.PlanID, p.Plan
		doc.StartDate, doc.EndDate = &p.StartDate, &p.EndDate
		doc.JoiningFee, doc.Renewal = p.JoiningFee, p.Renewal
	case domain.TrainerPayload:
		doc.MemberID, doc.TrainerID, doc.TrainerName = p.MemberID, p.TrainerID, p.TrainerName
		doc.StartDate, doc.EndDate = &p.AssignStart, &p.AssignEnd
	case domain.ProductPayload:
		doc.Items, doc.Subtotal = p.Items, p.Subtotal
	case domain.RestaurantPayload:
		doc.Items, doc.Subtotal = p.Items, p.Subtotal
	default:
		return nil, fmt.Errorf("cannot store payload %T", sale.Payload)
	}
	if sale.Payload.Service() != sale.Service {
		return nil, fmt.Errorf("payload %T does not match service %q", sale.Payload, sale.Service)
	}
	return doc, nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// toDomain rebuilds the tagged payload. A cart that cannot be parsed yields
// an UnreadablePayload so one bad row does not break a whole listing.
func (d *saleDocument) toDomain() domain.Sale {
	sale := domain.Sale{
		ID:             d.ID.Hex(),
		InvoiceID:      d.InvoiceID,
		Service:        domain.ServiceName(d.ServiceName),
		MemberName:     d.MemberName,
		MemberPhone:    d.MemberPhone,
		AmountPaid:     d.AmountPaid,
		Discount:       d.Discount,
		Quantity:       d.Quantity,
		Category:       d.Category,
		PaymentMethod:  d.PaymentMethod,
		PaymentStatus:  domain.PaymentStatus(d.PaymentStatus),
		TimeOfPurchase: d.TimeOfPurchase,
	}
	switch sale.Service {
	case domain.ServiceMembership:
		sale.Payload = domain.MembershipPayload{
			MemberID: d.MemberID, MemberCode: d.MemberCode, PlanID: d.PlanID, Plan: d.Plan,
			StartDate: derefTime(d.StartDate), EndDate: derefTime(d.EndDate),
			JoiningFee: d.JoiningFee, Renewal: d.Renewal,
		}
	case domain.ServiceTrainer:
		sale.Payload = domain.TrainerPayload{
			MemberID: d.MemberID, TrainerID: d.TrainerID, TrainerName: d.TrainerName,
			AssignStart: derefTime(d.StartDate), AssignEnd: derefTime(d.EndDate),
		}
	case domain.ServiceProduct, domain.ServiceRestaurant:
		items, err := domain.ParseCartItems(d.Items)
		if err != nil {
			zap.S().Warnw("unreadable sale items", "invoice_id", d.InvoiceID, "error", err)
			sale.Payload = domain.UnreadablePayload{Kind: sale.Service, Err: err}
			break
		}
		cart := domain.CartPayload{Items: items, Subtotal: d.Subtotal}
		if cart.Subtotal == 0 {
			for _, it := range items {
				cart.Subtotal += it.LineTotal()
			}
		}
		if sale.Service == domain.ServiceProduct {
			sale.Payload = domain.ProductPayload{CartPayload: cart}
		} else {
			sale.Payload = domain.RestaurantPayload{CartPayload: cart}
		}
	default:
		sale.Payload = domain.UnreadablePayload{
			Kind: sale.Service,
			Err:  fmt.Errorf("unknown service %q", d.ServiceName),
		}
	}
	return sale
}

type mongoSaleRepository struct {
	collection *mongo.Collection
}

// NewMongoSaleRepository creates a new instance of mongoSaleRepository.
func NewMongoSaleRepository(db *mongo.Database) repository.SaleRepository {
	return &mongoSaleRepository{collection: db.Collection(saleCollectionName)}
}

func (r *mongoSaleRepository) Insert(ctx context.Context, sale *domain.Sale) error {
	doc, err := toSaleDocument(sale)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if err := insert(ctx, r.collection, doc); err != nil {
		return err
	}
	sale.ID = doc.ID.Hex()
	return nil
}

func (r *mongoSaleRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Sale, error) {
	var doc saleDocument
	if err := findOne(ctx, r.collection, bson.M{"invoice_id": invoiceID}, &doc); err != nil {
		return nil, err
	}
	sale := doc.toDomain()
	return &sale, nil
}

func (r *mongoSaleRepository) find(ctx context.Context, filter bson.M, sortDir int) ([]domain.Sale, error) {
	docs := []saleDocument{}
	opts := options.Find().SetSort(bson.D{{Key: "time_of_purchase", Value: sortDir}})
	if err := findAll(ctx, r.collection, filter, &docs, opts); err != nil {
		return nil, err
	}
	sales := make([]domain.Sale, 0, len(docs))
	for i := range docs {
		sales = append(sales, docs[i].toDomain())
	}
	return sales, nil
}

func (r *mongoSaleRepository) List(ctx context.Context) ([]domain.Sale, error) {
	return r.find(ctx, bson.M{}, -1)
}

func (r *mongoSaleRepository) ListRange(ctx context.Context, from, to time.Time, filter repository.SaleFilter) ([]domain.Sale, error) {
	query := bson.M{"time_of_purchase": bson.M{"$gte": from, "$lte": to}}
	if filter.Service != "" {
		query["service_name"] = filter.Service
	}
	if filter.PaymentStatus != "" {
		query["payment_status"] = filter.PaymentStatus
	}
	return r.find(ctx, query, 1)
}

// Settle flips an unpaid row to paid. Only the payment fields are touched.
func (r *mongoSaleRepository) Settle(ctx context.Context, invoiceID, method string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"invoice_id": invoiceID, "payment_status": domain.PaymentUnpaid},
		bson.M{"$set": bson.M{
			"payment_status": domain.PaymentPaid,
			"payment_method": method,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		var doc saleDocument
		if err := findOne(ctx, r.collection, bson.M{"invoice_id": invoiceID}, &doc); err != nil {
			return err
		}
		return repository.ErrAlreadySettled
	}
	return nil
}

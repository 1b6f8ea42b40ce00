package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/core/domain"
)

const collectionSlots = "slots"

type SlotRepository struct {
	coll *mongo.Collection
}

func NewSlotRepository(db *mongo.Database) *SlotRepository {
	return &SlotRepository{coll: db.Collection(collectionSlots)}
}

// slotDocument mirrors the wire shape: booking fields are flat on the slot.
type slotDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	SlotNumber    int                `bson:"slotNumber"`
	SlotType      string             `bson:"slotType"`
	Floor         string             `bson:"floor"`
	IsBooked      bool               `bson:"isBooked"`
	BookedByID    string             `bson:"bookedById,omitempty"`
	BookedByName  string             `bson:"bookedByName,omitempty"`
	VehicleNumber string             `bson:"vehicleNumber,omitempty"`
	VehicleType   string             `bson:"vehicleType,omitempty"`
	UserName      string             `bson:"userName,omitempty"`
	Phone         string             `bson:"phone,omitempty"`
	StartTime     *time.Time         `bson:"startTime,omitempty"`
	EndTime       *time.Time         `bson:"endTime,omitempty"`
	PaymentStatus string             `bson:"paymentStatus,omitempty"`
	Amount        float64            `bson:"amount,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// bookingFields lists every field cleared on release.
var bookingFields = bson.M{
	"bookedById": "", "bookedByName": "", "vehicleNumber": "", "vehicleType": "",
	"userName": "", "phone": "", "startTime": "", "endTime": "", "paymentStatus": "", "amount": "",
}

func (d slotDocument) toBackend() backend.Slot {
	s := backend.Slot{
		Slot: domain.Slot{
			ID:       d.ID.Hex(),
			Number:   d.SlotNumber,
			Type:     domain.SlotType(d.SlotType),
			Floor:    domain.Floor(d.Floor),
			IsBooked: d.IsBooked,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.IsBooked {
		s.BookerID = d.BookedByID
		s.Booking = &domain.Booking{
			VehicleNumber: d.VehicleNumber,
			VehicleType:   d.VehicleType,
			BookerName:    d.UserName,
			Phone:         d.Phone,
			StartTime:     timeValue(d.StartTime),
			EndTime:       timeValue(d.EndTime),
			PaymentStatus: domain.PaymentStatus(d.PaymentStatus),
			Amount:        d.Amount,
			BookedBy:      d.BookedByName,
		}
	}
	return s
}

func (r *SlotRepository) List(ctx context.Context) ([]backend.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "floor", Value: 1}, {Key: "slotNumber", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer cur.Close(ctx)

	var docs []slotDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	out := make([]backend.Slot, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBackend())
	}
	return out, nil
}

func (r *SlotRepository) Get(ctx context.Context, id string) (backend.Slot, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return backend.Slot{}, backend.ErrSlotNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d slotDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return backend.Slot{}, backend.ErrSlotNotFound
		}
		return backend.Slot{}, fmt.Errorf("find slot: %w", err)
	}
	return d.toBackend(), nil
}

func (r *SlotRepository) Create(ctx context.Context, slot *backend.Slot) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := slotDocument{
		ID:         primitive.NewObjectID(),
		SlotNumber: slot.Number,
		SlotType:   string(slot.Type),
		Floor:      string(slot.Floor),
		CreatedAt:  slot.CreatedAt,
		UpdatedAt:  slot.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return backend.ErrSlotExists
		}
		return fmt.Errorf("insert slot: %w", err)
	}
	slot.ID = doc.ID.Hex()
	return nil
}

func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return backend.ErrSlotNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if res.DeletedCount == 0 {
		return backend.ErrSlotNotFound
	}
	return nil
}

// Book sets the booking only while isBooked is false, so concurrent bookings
// of one slot resolve to a single winner.
func (r *SlotRepository) Book(ctx context.Context, id string, b domain.Booking, bookerID string) (backend.Slot, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return backend.Slot{}, backend.ErrSlotNotFound
	}
	set := bson.M{
		"isBooked":      true,
		"bookedById":    bookerID,
		"bookedByName":  b.BookedBy,
		"vehicleNumber": b.VehicleNumber,
		"vehicleType":   b.VehicleType,
		"userName":      b.BookerName,
		"phone":         b.Phone,
		"paymentStatus": string(b.PaymentStatus),
		"amount":        b.Amount,
		"updatedAt":     time.Now().UTC(),
	}
	if !b.StartTime.IsZero() {
		set["startTime"] = b.StartTime
	}
	if !b.EndTime.IsZero() {
		set["endTime"] = b.EndTime
	}
	return r.conditionalUpdate(ctx, oid, false, bson.M{"$set": set}, backend.ErrSlotBooked)
}

// Release clears the booking only while isBooked is true.
func (r *SlotRepository) Release(ctx context.Context, id string) (backend.Slot, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return backend.Slot{}, backend.ErrSlotNotFound
	}
	update := bson.M{
		"$set":   bson.M{"isBooked": false, "updatedAt": time.Now().UTC()},
		"$unset": bookingFields,
	}
	return r.conditionalUpdate(ctx, oid, true, update, backend.ErrSlotNotBooked)
}

// conditionalUpdate applies update when isBooked equals wantBooked. A miss is
// stateErr when the slot exists, ErrSlotNotFound otherwise.
func (r *SlotRepository) conditionalUpdate(ctx context.Context, oid primitive.ObjectID, wantBooked bool, update bson.M, stateErr error) (backend.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d slotDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "isBooked": wantBooked}, update, opts).Decode(&d)
	if err == nil {
		return d.toBackend(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return backend.Slot{}, fmt.Errorf("update slot: %w", err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return backend.Slot{}, fmt.Errorf("count slot: %w", err)
	}
	if n == 0 {
		return backend.Slot{}, backend.ErrSlotNotFound
	}
	return backend.Slot{}, stateErr
}

// EnsureIndexes makes slot numbers unique.
func (r *SlotRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slotNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

var _ backend.SlotRepository = (*SlotRepository)(nil)

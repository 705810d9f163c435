package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

type demoRepository struct {
	db *mongo.Database
}

var _ demo.Repository = (*demoRepository)(nil) // interface compliance check

func NewDemoRepository(db *mongo.Database) demo.Repository {
	return &demoRepository{db: db}
}

func (repo *demoRepository) states() *mongo.Collection {
	return repo.db.Collection(statesCollection)
}

func (repo *demoRepository) GetState(ctx context.Context, tenantID string) (demo.TenantDemoState, error) {
	var doc stateDoc
	err := repo.states().FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return demo.TenantDemoState{TenantID: tenantID}, nil
	}
	if err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "getting demo state")
	}
	return doc.state(), nil
}

func (repo *demoRepository) SetDemoMode(ctx context.Context, tenantID string, enabled bool, now time.Time) (demo.TenantDemoState, error) {
	var doc stateDoc
	err := repo.states().FindOneAndUpdate(ctx,
		bson.M{"tenant_id": tenantID},
		bson.M{
			"$set":         bson.M{"demo_mode_enabled": enabled, "updated_at": now.UTC()},
			"$setOnInsert": defaultState(tenantID, "demo_mode_enabled", "updated_at"),
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "setting demo mode")
	}
	return doc.state(), nil
}

// AcquireState makes sure the state document exists, then takes the lease with one conditional update.
func (repo *demoRepository) AcquireState(ctx context.Context, tenantID string, op demo.Operation, now, staleBefore time.Time) (demo.TenantDemoState, error) {
	if _, err := repo.states().UpdateOne(ctx,
		bson.M{"tenant_id": tenantID},
		bson.M{"$setOnInsert": defaultState(tenantID)},
		options.Update().SetUpsert(true),
	); err != nil && !mongo.IsDuplicateKeyError(err) {
		return demo.TenantDemoState{}, errors.Wrap(err, "creating demo state")
	}

	var doc stateDoc
	err := repo.states().FindOneAndUpdate(ctx,
		bson.M{
			"tenant_id": tenantID,
			"$or": bson.A{
				bson.M{"operation": ""},
				bson.M{"operation_started_at": bson.M{"$lt": staleBefore.UTC()}},
			},
		},
		bson.M{"$set": bson.M{"operation": string(op), "operation_started_at": now.UTC(), "updated_at": now.UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		held, getErr := repo.GetState(ctx, tenantID)
		if getErr != nil {
			return demo.TenantDemoState{}, getErr
		}
		return held, demo.ErrBusy
	}
	if err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "acquiring demo lease")
	}
	return doc.state(), nil
}

func (repo *demoRepository) ReleaseState(ctx context.Context, tenantID string, op demo.Operation, out demo.Outcome, now time.Time) (demo.TenantDemoState, error) {
	set := bson.M{
		"demo_data_loaded": out.Loaded,
		"needs_cleanup":    out.NeedsCleanup,
		"last_run_id":      out.RunID,
		"last_seed":        out.Seed,
		"operation":        "",
		"updated_at":       now.UTC(),
	}
	if out.EnableMode {
		set["demo_mode_enabled"] = true
	}

	var doc stateDoc
	err := repo.states().FindOneAndUpdate(ctx,
		bson.M{"tenant_id": tenantID, "operation": string(op)},
		bson.M{"$set": set, "$unset": bson.M{"operation_started_at": ""}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return demo.TenantDemoState{}, demo.ErrLeaseLost
	}
	if err != nil {
		return demo.TenantDemoState{}, errors.Wrap(err, "releasing demo lease")
	}
	return doc.state(), nil
}

func (repo *demoRepository) StudentIDs(ctx context.Context, tenantID string) ([]string, error) {
	cur, err := repo.db.Collection(studentsCollection).Find(ctx,
		bson.M{"tenant_id": tenantID},
		options.Find().SetProjection(bson.M{"student_id": 1, "_id": 0}).SetSort(bson.M{"student_id": 1}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing student ids")
	}
	var docs []struct {
		StudentID string `bson:"student_id"`
	}
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "listing student ids")
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.StudentID)
	}
	return ids, nil
}

func (repo *demoRepository) InsertStudents(ctx context.Context, students []demo.Student) error {
	docs := make([]interface{}, 0, len(students))
	for _, st := range students {
		docs = append(docs, newStudentDoc(st))
	}
	return repo.insertMany(ctx, studentsCollection, docs)
}

func (repo *demoRepository) InsertStaff(ctx context.Context, staff []user.User) error {
	docs := make([]interface{}, 0, len(staff))
	for _, usr := range staff {
		docs = append(docs, newUserDoc(usr))
	}
	return repo.insertMany(ctx, usersCollection, docs)
}

func (repo *demoRepository) InsertAttendance(ctx context.Context, marks []demo.AttendanceMark) error {
	docs := make([]interface{}, 0, len(marks))
	for _, m := range marks {
		docs = append(docs, markDoc{
			TenantID:   m.TenantID,
			StudentID:  m.StudentID,
			Date:       m.Date,
			Status:     string(m.Status),
			Remark:     m.Remark,
			IsDemoData: m.IsDemoData,
		})
	}
	return repo.insertMany(ctx, attendanceCollection, docs)
}

func (repo *demoRepository) InsertFees(ctx context.Context, fees []demo.FeeLine) error {
	docs := make([]interface{}, 0, len(fees))
	for _, f := range fees {
		if !f.Consistent() {
			return errors.Wrapf(demo.ErrFeeInvariant, "fee %s %s %d", f.StudentID, f.Month, f.Year)
		}
		docs = append(docs, feeDoc{
			TenantID:    f.TenantID,
			StudentID:   f.StudentID,
			Month:       f.Month,
			Year:        f.Year,
			Amount:      f.Amount,
			PaidAmount:  f.PaidAmount,
			DueAmount:   f.DueAmount,
			Status:      string(f.Status),
			PaymentDate: f.PaymentDate,
			IsDemoData:  f.IsDemoData,
		})
	}
	return repo.insertMany(ctx, feesCollection, docs)
}

func (repo *demoRepository) insertMany(ctx context.Context, collection string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := repo.db.Collection(collection).InsertMany(ctx, docs); err != nil {
		return errors.Wrapf(err, "inserting %s", collection)
	}
	return nil
}

func (repo *demoRepository) DeleteStudents(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, studentsCollection, scope)
}

func (repo *demoRepository) DeleteStaff(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, usersCollection, scope)
}

func (repo *demoRepository) DeleteAttendance(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, attendanceCollection, scope)
}

func (repo *demoRepository) DeleteFees(ctx context.Context, scope demo.Scope) (int64, error) {
	return repo.deleteScoped(ctx, feesCollection, scope)
}

func (repo *demoRepository) deleteScoped(ctx context.Context, collection string, scope demo.Scope) (int64, error) {
	filter, err := scopeFilter(collection, scope)
	if err != nil {
		return 0, err
	}
	res, err := repo.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting demo %s", collection)
	}
	return res.DeletedCount, nil
}

func (repo *demoRepository) CountDemo(ctx context.Context, scope demo.Scope) (demo.Counts, error) {
	var c demo.Counts
	for _, target := range []struct {
		collection string
		dst        *int
	}{
		{studentsCollection, &c.Persons},
		{usersCollection, &c.Staff},
		{attendanceCollection, &c.Attendance},
		{feesCollection, &c.Fees},
	} {
		filter, err := scopeFilter(target.collection, scope)
		if err != nil {
			return demo.Counts{}, err
		}
		n, err := repo.db.Collection(target.collection).CountDocuments(ctx, filter)
		if err != nil {
			return demo.Counts{}, errors.Wrapf(err, "counting demo %s", target.collection)
		}
		*target.dst = int(n)
	}
	return c, nil
}

// defaultState is the insert-only part of a state upsert. Fields set by the same update are skipped.
func defaultState(tenantID string, skip ...string) bson.M {
	doc := bson.M{
		"tenant_id":         tenantID,
		"demo_mode_enabled": false,
		"demo_data_loaded":  false,
		"operation":         "",
		"needs_cleanup":     false,
		"last_run_id":       "",
		"last_seed":         int64(0),
		"updated_at":        time.Time{},
	}
	for _, k := range skip {
		delete(doc, k)
	}
	return doc
}

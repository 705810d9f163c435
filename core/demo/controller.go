package demo

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

const defaultLeaseTTL = 10 * time.Minute

var NowFunc = time.Now // mockable

type (
	Deps struct {
		Repo       Repository
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Plan       Plan
		// PlaceholderPassword is the credential of every synthetic account.
		PlaceholderPassword string
		// LeaseTTL after which an unreleased lease is considered abandoned.
		LeaseTTL time.Duration

		Locker   Locker          // optional
		Metrics  MetricsRecorder // optional
		NewRunID func() string   // optional
	}

	// Controller drives the demo lifecycle of tenants:
	// Off -> Enabled-Empty (enable) -> Enabled-Loaded (load) -> Enabled-Empty (clear),
	// or a fresh Enabled-Loaded (reset). Load, reset and clear hold the tenant lease while running.
	Controller struct {
		repo       Repository
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		plan       Plan
		credential []byte
		leaseTTL   time.Duration
		locker     Locker
		metrics    MetricsRecorder
		newRunID   func() string
	}

	// phase runs under the tenant lease and returns what to write back on release.
	phase func(ctx context.Context, scope Scope, held TenantDemoState) (Outcome, Counts, error)
)

func NewController(deps Deps) (*Controller, error) {
	if deps.Repo == nil || deps.Logger == nil || deps.Validate == nil {
		return nil, errors.New("demo controller requires a repository, a logger and a validator")
	}

	plan := deps.Plan
	plan.AsOf = NowFunc().UTC()
	if err := deps.Validate.Struct(plan); err != nil {
		return nil, errors.Wrap(core.TranslateValidation(err, deps.Translator), "validating demo plan")
	}

	pwd := deps.PlaceholderPassword
	if pwd == "" {
		pwd = uuid.New().String()
	}
	credential, err := user.HashPassword(pwd)
	if err != nil {
		return nil, errors.Wrap(err, "hashing placeholder credential")
	}

	c := &Controller{
		repo:       deps.Repo,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		plan:       deps.Plan,
		credential: credential,
		leaseTTL:   deps.LeaseTTL,
		locker:     deps.Locker,
		metrics:    deps.Metrics,
		newRunID:   deps.NewRunID,
	}
	if c.leaseTTL <= 0 {
		c.leaseTTL = defaultLeaseTTL
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if c.newRunID == nil {
		c.newRunID = func() string { return uuid.New().String() }
	}
	return c, nil
}

// Status returns the tenant state and the number of demo records it holds.
func (c *Controller) Status(ctx context.Context, tenantID string) (Result, error) {
	begin := NowFunc()
	res := Result{Operation: OpStatus, TenantID: tenantID}
	scope, err := c.scope(tenantID)
	if err != nil {
		return c.finish(res, begin, err)
	}

	if res.State, err = c.repo.GetState(ctx, tenantID); err != nil {
		return c.finish(res, begin, errors.Wrap(err, "getting demo state"))
	}
	if res.Counts, err = c.repo.CountDemo(ctx, scope); err != nil {
		return c.finish(res, begin, errors.Wrap(err, "counting demo data"))
	}
	return c.finish(res, begin, nil)
}

// Enable switches demo mode on. Data is not loaded.
func (c *Controller) Enable(ctx context.Context, tenantID string) (Result, error) {
	return c.setMode(ctx, OpEnable, tenantID, true)
}

// Disable switches demo mode off. Loaded data stays in place.
func (c *Controller) Disable(ctx context.Context, tenantID string) (Result, error) {
	return c.setMode(ctx, OpDisable, tenantID, false)
}

func (c *Controller) setMode(ctx context.Context, op Operation, tenantID string, enabled bool) (Result, error) {
	begin := NowFunc()
	res := Result{Operation: op, TenantID: tenantID}
	if _, err := c.scope(tenantID); err != nil {
		return c.finish(res, begin, err)
	}

	st, err := c.repo.SetDemoMode(ctx, tenantID, enabled, NowFunc().UTC())
	if err != nil {
		return c.finish(res, begin, errors.Wrap(err, "setting demo mode"))
	}
	res.State = st
	c.logger.Info(fmt.Sprintf("demo mode %sd", op), map[string]interface{}{"tenant": tenantID})
	return c.finish(res, begin, nil)
}

// Load synthesizes and stores a dataset. It is a no-op, without writes, when data is already loaded.
func (c *Controller) Load(ctx context.Context, tenantID string) (Result, error) {
	begin := NowFunc()
	res := Result{Operation: OpLoad, TenantID: tenantID}
	if _, err := c.scope(tenantID); err != nil {
		return c.finish(res, begin, err)
	}

	st, err := c.repo.GetState(ctx, tenantID)
	if err != nil {
		return c.finish(res, begin, errors.Wrap(err, "getting demo state"))
	}
	if st.DemoDataLoaded {
		return c.finish(noop(res, st), begin, nil)
	}

	return c.exclusive(ctx, res, begin, func(ctx context.Context, scope Scope, held TenantDemoState) (Outcome, Counts, error) {
		if held.DemoDataLoaded { // loaded while we were waiting for the lease
			return keep(held), Counts{}, errNoop
		}
		return c.loadPhase(ctx, OpLoad, scope, held)
	})
}

// Reset clears the demo data of the tenant and loads a fresh dataset under a single lease.
func (c *Controller) Reset(ctx context.Context, tenantID string) (Result, error) {
	begin := NowFunc()
	res := Result{Operation: OpReset, TenantID: tenantID}
	if _, err := c.scope(tenantID); err != nil {
		return c.finish(res, begin, err)
	}

	return c.exclusive(ctx, res, begin, func(ctx context.Context, scope Scope, held TenantDemoState) (Outcome, Counts, error) {
		out := keep(held)
		out.Loaded = false
		if _, err := c.purge(ctx, scope); err != nil {
			out.NeedsCleanup = true
			return out, Counts{}, errors.Wrap(err, "clearing demo data")
		}
		held.NeedsCleanup = false
		return c.loadPhase(ctx, OpReset, scope, held)
	})
}

// Clear removes the demo data of the tenant. Real records and protected accounts are never touched.
func (c *Controller) Clear(ctx context.Context, tenantID string) (Result, error) {
	begin := NowFunc()
	res := Result{Operation: OpClear, TenantID: tenantID}
	if _, err := c.scope(tenantID); err != nil {
		return c.finish(res, begin, err)
	}

	return c.exclusive(ctx, res, begin, func(ctx context.Context, scope Scope, held TenantDemoState) (Outcome, Counts, error) {
		out := keep(held)
		out.Loaded = false
		out.NeedsCleanup = false
		deleted, err := c.purge(ctx, scope)
		if err != nil {
			out.NeedsCleanup = true
			return out, deleted, errors.Wrap(err, "clearing demo data")
		}
		c.metrics.AddRecords(OpClear, deleted)
		c.logger.Info("demo data cleared", map[string]interface{}{"tenant": scope.TenantID(), "deleted": deleted.Total()})
		return out, deleted, nil
	})
}

var errNoop = errors.New("demo data already loaded")

// exclusive runs fn while holding the tenant lease. Caller cancellation is ignored once started.
func (c *Controller) exclusive(ctx context.Context, res Result, begin time.Time, fn phase) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	tenantID := res.TenantID
	scope, err := c.scope(tenantID)
	if err != nil {
		return c.finish(res, begin, err)
	}

	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, tenantID)
		if err != nil {
			if errors.Is(err, ErrBusy) {
				return c.finish(busy(res), begin, ErrBusy)
			}
			return c.finish(res, begin, errors.Wrap(err, "locking tenant"))
		}
		defer unlock()
	}

	now := NowFunc().UTC()
	held, err := c.repo.AcquireState(ctx, tenantID, res.Operation, now, now.Add(-c.leaseTTL))
	if err != nil {
		if errors.Is(err, ErrBusy) {
			res.State = held
			return c.finish(busy(res), begin, ErrBusy)
		}
		return c.finish(res, begin, errors.Wrap(err, "acquiring demo lease"))
	}

	out, counts, runErr := fn(ctx, scope, held)

	released, relErr := c.repo.ReleaseState(context.Background(), tenantID, res.Operation, out, NowFunc().UTC())
	if relErr != nil {
		fields := map[string]interface{}{"tenant": tenantID, "operation": string(res.Operation)}
		c.logger.Error("releasing demo lease failed", relErr, fields)
		stored := runErr == nil && out.Loaded
		if runErr == nil || runErr == errNoop {
			runErr = errors.Wrap(relErr, "releasing demo lease")
		}
		// the stored state does not record this run, so its rows are rolled back
		if stored {
			out.Loaded = false
			counts = Counts{}
			if _, rbErr := c.purge(context.Background(), scope); rbErr != nil {
				out.NeedsCleanup = true
				c.logger.Warn("demo rollback incomplete, tenant needs cleanup", rbErr, fields)
			}
		}
		released, relErr = c.repo.ReleaseState(context.Background(), tenantID, res.Operation, out, NowFunc().UTC())
		if relErr != nil {
			c.logger.Error("releasing demo lease failed", relErr, fields)
		}
	}
	if relErr == nil {
		res.State = released
	}

	if runErr == errNoop {
		return c.finish(noop(res, res.State), begin, nil)
	}
	res.Counts = counts
	return c.finish(res, begin, runErr)
}

// loadPhase synthesizes and persists a dataset. Any persistence failure is rolled back through the scope.
func (c *Controller) loadPhase(ctx context.Context, op Operation, scope Scope, held TenantDemoState) (Outcome, Counts, error) {
	out := keep(held)
	out.Loaded = false
	out.EnableMode = true
	tenantID := scope.TenantID()

	if held.NeedsCleanup {
		if _, err := c.purge(ctx, scope); err != nil {
			return out, Counts{}, errors.Wrap(err, "purging leftover demo data")
		}
		out.NeedsCleanup = false
	}

	reserved, err := c.repo.StudentIDs(ctx, tenantID)
	if err != nil {
		return out, Counts{}, errors.Wrap(err, "listing student ids")
	}

	plan := c.plan
	plan.AsOf = NowFunc().UTC()
	plan.ReservedIDs = reserved
	seed := RunSeed(tenantID, plan.AsOf)

	batch, err := Synthesize(scope, plan, c.credential, NewRand(seed))
	if err != nil {
		return out, Counts{}, errors.Wrap(err, "synthesizing demo data")
	}

	if err := c.persist(ctx, batch); err != nil {
		fields := map[string]interface{}{"tenant": tenantID, "operation": string(op), "seed": seed}
		c.logger.Error("persisting demo data failed, rolling back", err, fields)
		if _, rbErr := c.purge(context.Background(), scope); rbErr != nil {
			out.NeedsCleanup = true
			c.logger.Warn("demo rollback incomplete, tenant needs cleanup", rbErr, fields)
		}
		return out, Counts{}, errors.Wrap(err, "persisting demo data")
	}

	counts := batch.Counts()
	out.Loaded = true
	out.RunID = c.newRunID()
	out.Seed = seed
	c.metrics.AddRecords(op, counts)
	c.logger.Info("demo data loaded", map[string]interface{}{
		"tenant":     tenantID,
		"run_id":     out.RunID,
		"seed":       seed,
		"persons":    counts.Persons,
		"staff":      counts.Staff,
		"attendance": counts.Attendance,
		"fees":       counts.Fees,
	})
	return out, counts, nil
}

// persist writes parents before the records referencing them.
func (c *Controller) persist(ctx context.Context, b Batch) error {
	if err := c.repo.InsertStudents(ctx, b.Students); err != nil {
		return errors.Wrap(err, "inserting students")
	}
	if err := c.repo.InsertStaff(ctx, b.Staff); err != nil {
		return errors.Wrap(err, "inserting staff")
	}
	if err := c.repo.InsertAttendance(ctx, b.Attendance); err != nil {
		return errors.Wrap(err, "inserting attendance")
	}
	if err := c.repo.InsertFees(ctx, b.Fees); err != nil {
		return errors.Wrap(err, "inserting fees")
	}
	return nil
}

// purge deletes every demo record of the scope, children first.
// All kinds are attempted even after a failure; the first error is returned.
func (c *Controller) purge(ctx context.Context, scope Scope) (Counts, error) {
	var (
		deleted  Counts
		firstErr error
	)
	steps := []struct {
		name  string
		del   func(context.Context, Scope) (int64, error)
		count *int
	}{
		{"fees", c.repo.DeleteFees, &deleted.Fees},
		{"attendance", c.repo.DeleteAttendance, &deleted.Attendance},
		{"students", c.repo.DeleteStudents, &deleted.Persons},
		{"staff", c.repo.DeleteStaff, &deleted.Staff},
	}
	for _, step := range steps {
		n, err := step.del(ctx, scope)
		*step.count = int(n)
		if err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "deleting %s", step.name)
		}
	}
	return deleted, firstErr
}

// scope validates the tenant id and builds its demo scope.
func (c *Controller) scope(tenantID string) (Scope, error) {
	if err := core.ValidateTenantID(c.validate, c.translator, tenantID); err != nil {
		return Scope{}, err
	}
	return ScopeFor(tenantID)
}

func (c *Controller) finish(res Result, begin time.Time, err error) (Result, error) {
	res.Duration = NowFunc().Sub(begin)
	if err != nil && res.Status == "" {
		res.Status = StatusError
		res.Message = err.Error()
	}
	if res.Status == "" {
		res.Status = StatusOK
	}
	c.metrics.ObserveOperation(res.Operation, res.Status, res.Duration)
	if res.Status == StatusError && !core.IsValidationError(err) {
		c.logger.Error(fmt.Sprintf("demo %s failed", res.Operation), err, map[string]interface{}{"tenant": res.TenantID})
	}
	return res, err
}

// keep writes back the held state unchanged.
func keep(held TenantDemoState) Outcome {
	return Outcome{
		Loaded:       held.DemoDataLoaded,
		NeedsCleanup: held.NeedsCleanup,
		RunID:        held.LastRunID,
		Seed:         held.LastSeed,
	}
}

func noop(res Result, st TenantDemoState) Result {
	res.Status = StatusNoop
	res.Message = errNoop.Error()
	res.State = st
	return res
}

func busy(res Result) Result {
	res.Status = StatusBusy
	res.Message = ErrBusy.Error()
	return res
}

package demo

import (
	"context"
	"time"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

type (
	// Repository is the storage boundary of the demo lifecycle.
	// Inserts are insert-many, deletes are delete-many over a Scope, the lease is a conditional update.
	// Nothing here spans more than one collection, so no transactions are assumed.
	Repository interface {
		// GetState returns the tenant state, or the default state when none is stored. It never writes.
		GetState(ctx context.Context, tenantID string) (TenantDemoState, error)
		SetDemoMode(ctx context.Context, tenantID string, enabled bool, now time.Time) (TenantDemoState, error)
		// AcquireState takes the tenant lease for op if it is free or was started before staleBefore.
		// It returns ErrBusy otherwise.
		AcquireState(ctx context.Context, tenantID string, op Operation, now, staleBefore time.Time) (TenantDemoState, error)
		// ReleaseState writes the outcome and frees the lease held by op. It returns ErrLeaseLost if op no longer holds it.
		ReleaseState(ctx context.Context, tenantID string, op Operation, out Outcome, now time.Time) (TenantDemoState, error)

		// StudentIDs lists the student codes the tenant holds, whatever their provenance.
		StudentIDs(ctx context.Context, tenantID string) ([]string, error)

		InsertStudents(ctx context.Context, students []Student) error
		InsertStaff(ctx context.Context, staff []user.User) error
		InsertAttendance(ctx context.Context, marks []AttendanceMark) error
		InsertFees(ctx context.Context, fees []FeeLine) error

		DeleteStudents(ctx context.Context, scope Scope) (int64, error)
		// DeleteStaff never removes protected accounts.
		DeleteStaff(ctx context.Context, scope Scope) (int64, error)
		DeleteAttendance(ctx context.Context, scope Scope) (int64, error)
		DeleteFees(ctx context.Context, scope Scope) (int64, error)

		CountDemo(ctx context.Context, scope Scope) (Counts, error)
	}

	// Locker is an optional cross-process guard taken before the tenant lease.
	Locker interface {
		// Lock returns ErrBusy when the tenant is held elsewhere.
		Lock(ctx context.Context, tenantID string) (unlock func(), err error)
	}

	MetricsRecorder interface {
		ObserveOperation(op Operation, status Status, elapsed time.Duration)
		AddRecords(op Operation, counts Counts)
	}
)

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(Operation, Status, time.Duration) {}
func (nopMetrics) AddRecords(Operation, Counts)                      {}

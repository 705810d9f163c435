package demo

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

// staffNamespace seeds the name-based ids of synthetic accounts.
var staffNamespace = uuid.MustParse("9c1d4c3e-5f0b-4a8e-9a57-2f8e3f0d6b11")

// Batch is everything one run writes for a tenant.
type Batch struct {
	scope      Scope
	Students   []Student
	Staff      []user.User
	Attendance []AttendanceMark
	Fees       []FeeLine
}

func (b Batch) Scope() Scope {
	return b.scope
}

func (b Batch) Counts() Counts {
	return Counts{
		Persons:    len(b.Students),
		Staff:      len(b.Staff),
		Attendance: len(b.Attendance),
		Fees:       len(b.Fees),
	}
}

// Verify checks the batch before anything is persisted: tags, natural keys and fee amounts.
func (b Batch) Verify() error {
	if !b.scope.Valid() {
		return ErrInvalidScope
	}
	known := make(map[string]struct{}, len(b.Students))
	for _, st := range b.Students {
		if !b.scope.Matches(st.TenantID, st.IsDemoData) {
			return errors.Wrapf(ErrUntagged, "student %s", st.StudentID)
		}
		if _, dup := known[st.StudentID]; dup {
			return errors.Wrapf(ErrPoolExhausted, "student code %s issued twice", st.StudentID)
		}
		known[st.StudentID] = struct{}{}
	}
	for _, usr := range b.Staff {
		if !b.scope.MatchesStaff(usr) {
			return errors.Wrapf(ErrUntagged, "staff %s", usr.Username)
		}
	}

	type markKey struct{ studentID, date string }
	marks := make(map[markKey]struct{}, len(b.Attendance))
	for _, m := range b.Attendance {
		if !b.scope.Matches(m.TenantID, m.IsDemoData) {
			return errors.Wrapf(ErrUntagged, "attendance %s %s", m.StudentID, m.Date)
		}
		if _, ok := known[m.StudentID]; !ok {
			return errors.Wrapf(ErrDanglingReference, "attendance %s", m.StudentID)
		}
		k := markKey{m.StudentID, m.Date}
		if _, dup := marks[k]; dup {
			return errors.Wrapf(ErrDuplicateMark, "%s %s", m.StudentID, m.Date)
		}
		marks[k] = struct{}{}
	}

	for _, f := range b.Fees {
		if !b.scope.Matches(f.TenantID, f.IsDemoData) {
			return errors.Wrapf(ErrUntagged, "fee %s %s %d", f.StudentID, f.Month, f.Year)
		}
		if _, ok := known[f.StudentID]; !ok {
			return errors.Wrapf(ErrDanglingReference, "fee %s", f.StudentID)
		}
		if !f.Consistent() {
			return errors.Wrapf(ErrFeeInvariant, "%s %s %d", f.StudentID, f.Month, f.Year)
		}
	}
	return nil
}

// Synthesize builds the whole dataset of a run in memory. It performs no I/O.
// credential is the password hash shared by every synthetic account.
// The same scope, plan, credential and seed always produce the same Batch.
func Synthesize(scope Scope, plan Plan, credential []byte, rnd *Rand) (Batch, error) {
	if !scope.Valid() {
		return Batch{}, ErrInvalidScope
	}
	if err := checkPools(); err != nil {
		return Batch{}, err
	}

	students, err := synthesizeStudents(scope, plan, rnd)
	if err != nil {
		return Batch{}, errors.Wrap(err, "synthesizing students")
	}
	staff := synthesizeStaff(scope, plan, credential, rnd)
	attendance := LinkAttendance(scope, students, plan, rnd)
	fees, err := LinkFees(scope, students, plan, rnd)
	if err != nil {
		return Batch{}, errors.Wrap(err, "synthesizing fees")
	}

	batch := Batch{
		scope:      scope,
		Students:   students,
		Staff:      staff,
		Attendance: attendance,
		Fees:       fees,
	}
	if err := batch.Verify(); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func synthesizeStudents(scope Scope, plan Plan, rnd *Rand) ([]Student, error) {
	asOf := dateOnly(plan.AsOf)
	codes := newCodeSequence(plan.IDPrefix, plan.ReservedIDs)

	n := rnd.Between(plan.Persons.Min, plan.Persons.Max)
	students := make([]Student, 0, n)
	for i := 0; i < n; i++ {
		code, err := codes.next()
		if err != nil {
			return nil, err
		}

		first := pick(rnd, firstNames)
		surname := pick(rnd, surnames)
		father := pick(rnd, fatherNames)
		mother := pick(rnd, motherNames)
		home := places[rnd.Intn(len(places))]
		house := rnd.Between(1, 250)
		class := classes[rnd.Intn(len(classes))]
		section := sections[rnd.Intn(len(sections))]

		dob, err := drawDate(rnd, asOf.Year()-rnd.Between(6, 16))
		if err != nil {
			return nil, err
		}
		admitted, err := drawDate(rnd, asOf.Year()-rnd.Between(1, 5))
		if err != nil {
			return nil, err
		}
		phone := fmt.Sprintf("%d%04d%05d", rnd.Between(6, 9), rnd.Intn(10000), rnd.Intn(100000))

		status := StudentActive
		if rnd.Chance(plan.InactiveRate) {
			status = StudentInactive
		}

		st := Student{
			StudentID:     code,
			Name:          joinNames(first, surname),
			FatherName:    joinNames(father, surname),
			MotherName:    joinNames(mother, surname),
			Class:         class,
			Section:       section,
			DateOfBirth:   dob,
			Address:       address(house, home),
			Phone:         phone,
			AdmissionDate: admitted,
			Status:        status,
			CreatedAt:     plan.AsOf,
		}
		scope.tagStudent(&st)
		students = append(students, st)
	}
	return students, nil
}

func synthesizeStaff(scope Scope, plan Plan, credential []byte, rnd *Rand) []user.User {
	token := tenantToken(scope.TenantID())
	perRole := make(map[string]int, len(staffRoles))

	n := rnd.Between(plan.Staff.Min, plan.Staff.Max)
	staff := make([]user.User, 0, n)
	for i := 0; i < n; i++ {
		role := pickRole(rnd)
		var first LocalizedValue
		if rnd.Chance(0.5) {
			first = pick(rnd, fatherNames)
		} else {
			first = pick(rnd, motherNames)
		}
		surname := pick(rnd, surnames)

		perRole[role.key]++
		uname := fmt.Sprintf("demo_%s_%s%02d", token, role.key, perRole[role.key])
		usr := user.User{
			ID:           uuid.NewSHA1(staffNamespace, []byte(scope.TenantID()+"/"+uname)).String(),
			Name:         joinNames(first, surname).EN,
			Username:     uname,
			Email:        uname + "@" + plan.EmailDomain,
			IsActive:     true,
			Roles:        []string{role.role},
			PasswordHash: append([]byte(nil), credential...),
			CreatedAt:    plan.AsOf,
			UpdatedAt:    plan.AsOf,
		}
		scope.tagStaff(&usr)
		staff = append(staff, usr)
	}
	return staff
}

func pickRole(rnd *Rand) staffRole {
	var total int
	for _, r := range staffRoles {
		total += r.weight
	}
	x := rnd.Intn(total)
	for _, r := range staffRoles {
		if x < r.weight {
			return r
		}
		x -= r.weight
	}
	return staffRoles[0]
}

// tenantToken is a short stable token making synthetic usernames globally unique.
func tenantToken(tenantID string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tenantID))
	return fmt.Sprintf("%016x", h.Sum64())[:12]
}

// codeSequence issues zero-padded student codes for one run, skipping codes the tenant already holds.
type codeSequence struct {
	prefix   string
	n        int
	reserved map[string]struct{}
}

func newCodeSequence(prefix string, reserved []string) *codeSequence {
	seq := &codeSequence{prefix: prefix, reserved: make(map[string]struct{}, len(reserved))}
	for _, code := range reserved {
		seq.reserved[code] = struct{}{}
	}
	return seq
}

func (s *codeSequence) next() (string, error) {
	for s.n < maxStudentCode {
		s.n++
		code := fmt.Sprintf("%s%04d", s.prefix, s.n)
		if _, taken := s.reserved[code]; !taken {
			return code, nil
		}
	}
	return "", errors.Wrap(ErrPoolExhausted, "student codes")
}

func drawDate(rnd *Rand, year int) (time.Time, error) {
	month := rnd.Between(1, 12)
	day := rnd.Between(1, maxDrawnDay)
	return mustDate(year, month, day)
}

// mustDate refuses dates time.Date would normalize (e.g. Feb 30).
func mustDate(year, month, day int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, errors.Wrapf(ErrImpossibleDate, "%04d-%02d-%02d", year, month, day)
	}
	return t, nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

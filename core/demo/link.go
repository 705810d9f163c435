package demo

import (
	"math"
	"time"
)

// LinkAttendance marks persons of the run on every weekday of the trailing attendance window.
// A shuffled share of PresentCoverage is Present, a few of the rest are Absent with a remark,
// everyone else gets no mark. Each (student, date) is marked at most once.
func LinkAttendance(scope Scope, persons []Student, plan Plan, rnd *Rand) []AttendanceMark {
	if len(persons) == 0 {
		return nil
	}
	asOf := dateOnly(plan.AsOf)
	start := asOf.AddDate(0, -plan.AttendanceMonths, 0)

	order := make([]int, len(persons))
	marks := make([]AttendanceMark, 0, len(persons)*plan.AttendanceMonths*23)
	for day := start; !day.After(asOf); day = day.AddDate(0, 0, 1) {
		if !isSchoolDay(day) {
			continue
		}
		date := day.Format(DateLayout)

		for i := range order {
			order[i] = i
		}
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		coverage := rnd.FloatBetween(plan.PresentCoverage.Min, plan.PresentCoverage.Max)
		present := int(math.Round(coverage * float64(len(persons))))
		if present > len(persons) {
			present = len(persons)
		}
		for _, idx := range order[:present] {
			m := AttendanceMark{StudentID: persons[idx].StudentID, Date: date, Status: Present}
			scope.tagMark(&m)
			marks = append(marks, m)
		}

		rest := order[present:]
		if len(rest) == 0 || plan.MaxAbsentMarks == 0 {
			continue
		}
		maxAbsent := plan.MaxAbsentMarks
		if maxAbsent > len(rest) {
			maxAbsent = len(rest)
		}
		for _, idx := range rest[:rnd.Between(0, maxAbsent)] {
			remark := pick(rnd, absenceRemarks)
			m := AttendanceMark{StudentID: persons[idx].StudentID, Date: date, Status: Absent, Remark: &remark}
			scope.tagMark(&m)
			marks = append(marks, m)
		}
	}
	return marks
}

// LinkFees bills every person of the run once per month over the trailing fee window, oldest month first.
func LinkFees(scope Scope, persons []Student, plan Plan, rnd *Rand) ([]FeeLine, error) {
	asOf := dateOnly(plan.AsOf)
	first := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(plan.FeeMonths - 1), 0)

	lo, hi := feeSteps(plan.FeeAmount)
	lines := make([]FeeLine, 0, len(persons)*plan.FeeMonths)
	for m := 0; m < plan.FeeMonths; m++ {
		month := first.AddDate(0, m, 0)
		current := month.Year() == asOf.Year() && month.Month() == asOf.Month()

		for _, p := range persons {
			amount := int64(rnd.Between(lo, hi) * feeStep)
			line := FeeLine{
				StudentID: p.StudentID,
				Month:     month.Month().String(),
				Year:      month.Year(),
				Amount:    amount,
			}

			if rnd.Chance(plan.PaidRate) {
				day := rnd.Between(1, maxDrawnDay)
				if current && day > asOf.Day() {
					day = asOf.Day()
				}
				paidOn, err := mustDate(month.Year(), int(month.Month()), day)
				if err != nil {
					return nil, err
				}
				line.PaidAmount = amount
				line.Status = FeePaid
				line.PaymentDate = &paidOn
			} else {
				if rnd.Chance(plan.PartialRate) {
					line.PaidAmount = amount * int64(rnd.Between(1, 9)) / 10
				}
				line.DueAmount = amount - line.PaidAmount
				line.Status = FeePending
			}
			scope.tagFee(&line)
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func isSchoolDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

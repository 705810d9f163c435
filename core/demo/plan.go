package demo

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Alisaqulain/madarcrm-sub000/core"
)

const (
	maxStudentCode = 9999
	maxStaff       = 99
	maxDrawnDay    = 28 // every drawn day exists in every month
	feeStep        = 50
)

var (
	personsRangeTag  = "personsrange"
	personsRangeText = "persons must be between 1 and 9999"

	staffRangeTag  = "staffrange"
	staffRangeText = "staff must be between 0 and 99"

	feeRangeTag  = "feerange"
	feeRangeText = "fee amounts must be at least 50 and span a multiple of 50"
)

type Range struct {
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gtefield=Min"`
}

type FloatRange struct {
	Min float64 `json:"min" validate:"gte=0,lte=1"`
	Max float64 `json:"max" validate:"gtefield=Min,lte=1"`
}

// Plan parameterizes one synthesis run.
type Plan struct {
	Persons          Range      `json:"persons"`
	Staff            Range      `json:"staff"`
	AttendanceMonths int        `json:"attendance_months" validate:"min=1,max=12"`
	FeeMonths        int        `json:"fee_months" validate:"min=1,max=24"`
	PresentCoverage  FloatRange `json:"present_coverage"`
	MaxAbsentMarks   int        `json:"max_absent_marks" validate:"gte=0"`
	InactiveRate     float64    `json:"inactive_rate" validate:"gte=0,lte=1"`
	PaidRate         float64    `json:"paid_rate" validate:"gte=0,lte=1"`
	PartialRate      float64    `json:"partial_rate" validate:"gte=0,lte=1"`
	FeeAmount        Range      `json:"fee_amount"`
	IDPrefix         string     `json:"id_prefix" validate:"required,alpha,max=8"`
	EmailDomain      string     `json:"email_domain" validate:"required,hostname_rfc1123"`

	// AsOf anchors every trailing window. Set per run.
	AsOf time.Time `json:"as_of" validate:"required"`
	// ReservedIDs are student codes already held by the tenant. Set per run.
	ReservedIDs []string `json:"-"`
}

// DefaultPlan returns the stock demo dataset shape.
func DefaultPlan() Plan {
	return Plan{
		Persons:          Range{Min: 75, Max: 100},
		Staff:            Range{Min: 10, Max: 15},
		AttendanceMonths: 3,
		FeeMonths:        6,
		PresentCoverage:  FloatRange{Min: 0.80, Max: 0.95},
		MaxAbsentMarks:   5,
		InactiveRate:     0.10,
		PaidRate:         0.70,
		PartialRate:      0.30,
		FeeAmount:        Range{Min: 500, Max: 2500},
		IDPrefix:         "NET",
		EmailDomain:      "demo.madarcrm.local",
	}
}

// NewPlan applies the configured overrides to DefaultPlan.
func NewPlan(conf core.DemoConfig) Plan {
	p := DefaultPlan()
	if conf.PersonsMin > 0 || conf.PersonsMax > 0 {
		p.Persons = Range{Min: conf.PersonsMin, Max: conf.PersonsMax}
	}
	if conf.StaffMin > 0 || conf.StaffMax > 0 {
		p.Staff = Range{Min: conf.StaffMin, Max: conf.StaffMax}
	}
	if conf.AttendanceMonths > 0 {
		p.AttendanceMonths = conf.AttendanceMonths
	}
	if conf.FeeMonths > 0 {
		p.FeeMonths = conf.FeeMonths
	}
	if conf.IDPrefix != "" {
		p.IDPrefix = conf.IDPrefix
	}
	if conf.EmailDomain != "" {
		p.EmailDomain = conf.EmailDomain
	}
	return p
}

// InitValidators registers the Plan validators.
// core.InitValidators must have been called on validate first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(planStructValidation, Plan{})
	core.RegisterCustomTranslation(validate, translator, personsRangeTag, personsRangeText)
	core.RegisterCustomTranslation(validate, translator, staffRangeTag, staffRangeText)
	core.RegisterCustomTranslation(validate, translator, feeRangeTag, feeRangeText)
}

func planStructValidation(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(Plan)
	if !ok {
		return
	}
	if p.Persons.Min < 1 || p.Persons.Max > maxStudentCode {
		sl.ReportError(p.Persons, "persons", "Persons", personsRangeTag, "")
	}
	if p.Staff.Max > maxStaff {
		sl.ReportError(p.Staff, "staff", "Staff", staffRangeTag, "")
	}
	if lo, hi := feeSteps(p.FeeAmount); p.FeeAmount.Min < feeStep || lo > hi {
		sl.ReportError(p.FeeAmount, "fee_amount", "FeeAmount", feeRangeTag, "")
	}
}

// feeSteps returns the multiples of feeStep inside r, in feeStep units.
func feeSteps(r Range) (lo, hi int) {
	return (r.Min + feeStep - 1) / feeStep, r.Max / feeStep
}

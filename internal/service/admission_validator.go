package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/noah-isme/academy-admissions/internal/dto"
	"github.com/noah-isme/academy-admissions/internal/models"
)

// Messages returned to applicants. They are part of the public contract.
const (
	MsgStudentNameRequired = "Student Name is required."
	MsgParentNameRequired  = "Parent/Guardian Name is required."
	MsgCourseRequired      = "Course Selection is required."
	MsgNextPaymentRequired = "Next Payment Date is required."
	MsgNextPaymentInvalid  = "Next Payment Date must be a valid date (YYYY-MM-DD)."
	MsgEmailInvalid        = "A valid Email Address is required."
	MsgTotalFeeInvalid     = "Total Fee must be a number."
	MsgAmountPaidInvalid   = "Amount Paid must be a number."
	MsgBalanceInvalid      = "Remaining Balance must be a number."
	MsgAmountPaidRange     = "Amount Paid must be a non-negative value and less than or equal to the Total Fee."
	MsgBalanceMismatch     = "The Remaining Balance calculation is incorrect."
	MsgSubmissionAccepted  = "Your admission form has been submitted successfully! We will contact you shortly."
	MsgStorageFailed       = "Could not save the admission record. Please try again or contact support."
)

// BalanceTolerance is the largest accepted gap between the submitted balance
// and fee minus amount paid.
const BalanceTolerance = 1.0

// CourseLookup resolves course ids to catalog entries.
type CourseLookup interface {
	GetByID(id string) (models.Course, bool)
}

// AdmissionValidator applies the submission rules in a fixed order and
// collects every failing message.
type AdmissionValidator struct {
	courses      CourseLookup
	validate     *validator.Validate
	phonePattern *regexp.Regexp
	phoneMessage string
	printer      *message.Printer
	location     *time.Location
}

// NewAdmissionValidator builds a validator for phone numbers in the form
// "+<countryCode> ddd ddddddd".
func NewAdmissionValidator(courses CourseLookup, validate *validator.Validate, countryCode string, location *time.Location) *AdmissionValidator {
	if validate == nil {
		validate = validator.New()
	}
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if countryCode == "" {
		countryCode = "92"
	}
	if location == nil {
		location = time.UTC
	}
	return &AdmissionValidator{
		courses:      courses,
		validate:     validate,
		phonePattern: regexp.MustCompile(`^\+` + regexp.QuoteMeta(countryCode) + `\s\d{3}\s\d{7}$`),
		phoneMessage: fmt.Sprintf("Phone Number is not in the correct format (+%s 3XX XXXXXXX).", countryCode),
		printer:      message.NewPrinter(language.English),
		location:     location,
	}
}

// Validate returns a draft record (no id, timestamps or attachment) or the
// ordered list of failing messages. The persisted balance is recomputed from
// the catalog fee and the amount paid.
func (v *AdmissionValidator) Validate(sub dto.AdmissionSubmission) (*models.AdmissionRecord, []string) {
	sub = trimSubmission(sub)
	var msgs []string

	totalFee, totalErr := parseAmount(sub.TotalFee)
	amountPaid, paidErr := parseAmount(sub.AmountPaid)
	balance, balanceErr := parseAmount(sub.RemainingBalance)

	course, courseFound := models.Course{}, false
	if sub.CourseID != "" {
		course, courseFound = v.courses.GetByID(sub.CourseID)
	}

	if v.isEmpty(sub.StudentName) {
		msgs = append(msgs, MsgStudentNameRequired)
	}
	if v.isEmpty(sub.ParentName) {
		msgs = append(msgs, MsgParentNameRequired)
	}
	if v.isEmpty(sub.CourseID) {
		msgs = append(msgs, MsgCourseRequired)
	}
	if sub.NextPaymentDate == "" {
		if v.owesBalance(course, courseFound, totalFee, totalErr, amountPaid, paidErr) {
			msgs = append(msgs, MsgNextPaymentRequired)
		}
	} else if _, err := time.ParseInLocation(models.DateLayout, sub.NextPaymentDate, v.location); err != nil {
		msgs = append(msgs, MsgNextPaymentInvalid)
	}

	if !v.phonePattern.MatchString(sub.PhoneNumber) {
		msgs = append(msgs, v.phoneMessage)
	}
	if err := v.validate.Var(sub.Email, "required,email"); err != nil {
		msgs = append(msgs, MsgEmailInvalid)
	}

	if sub.CourseID != "" && !courseFound {
		msgs = append(msgs, fmt.Sprintf("Selected course '%s' is not available.", sub.CourseID))
	}

	if courseFound {
		msgs = append(msgs, v.feeChecks(course, totalFee, totalErr, amountPaid, paidErr, balance, balanceErr)...)
	}

	if len(msgs) > 0 {
		return nil, msgs
	}

	return &models.AdmissionRecord{
		StudentName:      sub.StudentName,
		ParentName:       sub.ParentName,
		PhoneNumber:      sub.PhoneNumber,
		Email:            sub.Email,
		CourseID:         course.ID,
		CourseName:       course.NameEN,
		FixedFee:         course.FixedFee,
		AmountPaid:       amountPaid,
		RemainingBalance: math.Max(course.FixedFee-amountPaid, 0),
		NextPaymentDate:  sub.NextPaymentDate,
	}, nil
}

// FeeMismatchMessage renders the message naming the catalog fee.
func (v *AdmissionValidator) FeeMismatchMessage(fee float64) string {
	return v.printer.Sprintf("Total Fee mismatch. The fixed fee for the selected course is %.0f PKR.", fee)
}

func (v *AdmissionValidator) feeChecks(course models.Course, totalFee float64, totalErr error, amountPaid float64, paidErr error, balance float64, balanceErr error) []string {
	var msgs []string
	if totalErr != nil {
		msgs = append(msgs, MsgTotalFeeInvalid)
	} else if totalFee != course.FixedFee {
		msgs = append(msgs, v.FeeMismatchMessage(course.FixedFee))
	}

	if paidErr != nil {
		msgs = append(msgs, MsgAmountPaidInvalid)
	} else if amountPaid < 0 || amountPaid > course.FixedFee {
		msgs = append(msgs, MsgAmountPaidRange)
	}

	if balanceErr != nil {
		msgs = append(msgs, MsgBalanceInvalid)
	} else if paidErr == nil && math.Abs(course.FixedFee-amountPaid-balance) > BalanceTolerance {
		msgs = append(msgs, MsgBalanceMismatch)
	}
	return msgs
}

// owesBalance reports whether fee minus amount paid is strictly positive. The
// catalog fee wins over the submitted one when the course resolves.
func (v *AdmissionValidator) owesBalance(course models.Course, courseFound bool, totalFee float64, totalErr error, amountPaid float64, paidErr error) bool {
	if paidErr != nil {
		return false
	}
	fee := totalFee
	if courseFound {
		fee = course.FixedFee
	} else if totalErr != nil {
		return false
	}
	return fee-amountPaid > 0
}

func (v *AdmissionValidator) isEmpty(value string) bool {
	return v.validate.Var(value, "required") != nil
}

func trimSubmission(sub dto.AdmissionSubmission) dto.AdmissionSubmission {
	sub.StudentName = strings.TrimSpace(sub.StudentName)
	sub.ParentName = strings.TrimSpace(sub.ParentName)
	sub.PhoneNumber = strings.TrimSpace(sub.PhoneNumber)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.CourseID = strings.TrimSpace(sub.CourseID)
	sub.TotalFee = strings.TrimSpace(sub.TotalFee)
	sub.AmountPaid = strings.TrimSpace(sub.AmountPaid)
	sub.RemainingBalance = strings.TrimSpace(sub.RemainingBalance)
	sub.NextPaymentDate = strings.TrimSpace(sub.NextPaymentDate)
	return sub
}

func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty amount")
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount %q is not finite", raw)
	}
	return value, nil
}

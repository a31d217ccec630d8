package dto

import "github.com/noah-isme/academy-admissions/internal/models"

// AdmissionSubmission holds the public form fields exactly as received.
type AdmissionSubmission struct {
	StudentName      string `form:"student_name" json:"student_name"`
	ParentName       string `form:"parent_name" json:"parent_name"`
	PhoneNumber      string `form:"phone_number" json:"phone_number"`
	Email            string `form:"email" json:"email"`
	CourseID         string `form:"course_id" json:"course_id"`
	TotalFee         string `form:"total_fee" json:"total_fee"`
	AmountPaid       string `form:"amount_paid" json:"amount_paid"`
	RemainingBalance string `form:"remaining_balance" json:"remaining_balance"`
	NextPaymentDate  string `form:"next_payment_date" json:"next_payment_date"`
}

// AdmissionCreatedResponse acknowledges a stored submission.
type AdmissionCreatedResponse struct {
	Message string                 `json:"message"`
	Record  models.AdmissionRecord `json:"record"`
}

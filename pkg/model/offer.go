package model

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferDraft       OfferStatus = "draft"
	OfferSent        OfferStatus = "sent"
	OfferViewed      OfferStatus = "viewed"
	OfferAccepted    OfferStatus = "accepted"
	OfferRejected    OfferStatus = "rejected"
	OfferNegotiating OfferStatus = "negotiating"
	OfferExpired     OfferStatus = "expired"
	OfferWithdrawn   OfferStatus = "withdrawn"
)

// Open reports whether the candidate can still act on the offer.
func (s OfferStatus) Open() bool {
	return s == OfferSent || s == OfferViewed || s == OfferNegotiating
}

type Offer struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	ApplicationID   uuid.UUID   `json:"application_id" db:"application_id"`
	AgencyID        uuid.UUID   `json:"agency_id" db:"agency_id"`
	SalaryOffered   float64     `json:"salary_offered" db:"salary_offered"`
	Currency        string      `json:"currency" db:"currency"`
	StartDate       *time.Time  `json:"start_date" db:"start_date"`
	BenefitsOffered []string    `json:"benefits_offered" db:"benefits_offered"`
	AdditionalTerms *string     `json:"additional_terms" db:"additional_terms"`
	Message         *string     `json:"message" db:"message"`
	Status          OfferStatus `json:"status" db:"status"`
	SentAt          *time.Time  `json:"sent_at" db:"sent_at"`
	RespondedAt     *time.Time  `json:"responded_at" db:"responded_at"`
	ExpiresAt       *time.Time  `json:"expires_at" db:"expires_at"`
	Version         int64       `json:"version" db:"version"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

type CounterStatus string

const (
	CounterPending  CounterStatus = "pending"
	CounterAccepted CounterStatus = "accepted"
	CounterRejected CounterStatus = "rejected"
)

type CounterResponseType string

const (
	ResponseAccepted        CounterResponseType = "accepted"
	ResponseRejected        CounterResponseType = "rejected"
	ResponseEmployerCounter CounterResponseType = "employer_counter"
)

type CounterAuthor string

const (
	CounterByCandidate CounterAuthor = "candidate"
	CounterByEmployer  CounterAuthor = "employer"
)

type CounterOffer struct {
	ID                uuid.UUID            `json:"id" db:"id"`
	OfferID           uuid.UUID            `json:"offer_id" db:"offer_id"`
	RequestedSalary   float64              `json:"requested_salary" db:"requested_salary"`
	RequestedCurrency string               `json:"requested_currency" db:"requested_currency"`
	CandidateMessage  *string              `json:"candidate_message" db:"candidate_message"`
	EmployerResponse  *string              `json:"employer_response" db:"employer_response"`
	ResponseType      *CounterResponseType `json:"response_type" db:"response_type"`
	Status            CounterStatus        `json:"status" db:"status"`
	CreatedBy         CounterAuthor        `json:"created_by" db:"created_by"`
	CreatedAt         time.Time            `json:"created_at" db:"created_at"`
	RespondedAt       *time.Time           `json:"responded_at" db:"responded_at"`
}

type SendOfferReq struct {
	ApplicationID   uuid.UUID  `json:"application_id" binding:"required"`
	Salary          float64    `json:"salary_offered"`
	Currency        string     `json:"currency"`
	StartDate       *time.Time `json:"start_date"`
	ExpiresAt       *time.Time `json:"expires_at"`
	Benefits        []string   `json:"benefits_offered"`
	AdditionalTerms *string    `json:"additional_terms"`
	Message         *string    `json:"message"`
}

type SubmitCounterReq struct {
	RequestedSalary float64 `json:"requested_salary"`
	Message         *string `json:"candidate_message"`
}

type AcceptCounterReq struct {
	CounterOfferID  uuid.UUID `json:"counter_offer_id" binding:"required"`
	EmployerMessage *string   `json:"employer_message"`
}

type RejectCounterReq struct {
	CounterOfferID  uuid.UUID `json:"counter_offer_id" binding:"required"`
	EmployerMessage *string   `json:"employer_message"`
	SendNewCounter  bool      `json:"send_new_counter"`
	RevisedSalary   float64   `json:"revised_salary"`
	RevisedCurrency string    `json:"revised_currency"`
}

type RespondOfferReq struct {
	Accept bool `json:"accept"`
}

type OfferDetail struct {
	Offer
	CounterOffers []CounterOffer `json:"counter_offers"`
}

type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	ActionURL string    `json:"action_url" db:"action_url"`
	IsUrgent  bool      `json:"is_urgent" db:"is_urgent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package patientflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage is one phase of a patient's path through the facility.
type Stage string

const (
	StageRegistration Stage = "Registration"
	StageTriage       Stage = "Triage"
	StageConsultation Stage = "Consultation"
	StagePayment      Stage = "Payment"
	StagePharmacy     Stage = "Pharmacy"
	StageCompleted    Stage = "Completed"
)

// stageOrder defines the total order over stages. Every defined operation
// moves a patient strictly forward under this order; only the raw
// administrative override escapes it.
var stageOrder = map[Stage]int{
	StageRegistration: 0,
	StageTriage:       1,
	StageConsultation: 2,
	StagePayment:      3,
	StagePharmacy:     4,
	StageCompleted:    5,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Order returns the position of s in the patient journey. Unknown stages
// sort before Registration.
func (s Stage) Order() int {
	n, ok := stageOrder[s]
	if !ok {
		return -1
	}
	return n
}

// Stages lists all stages in journey order.
func Stages() []Stage {
	return []Stage{
		StageRegistration,
		StageTriage,
		StageConsultation,
		StagePayment,
		StagePharmacy,
		StageCompleted,
	}
}

// PaymentStatus tracks whether the consultation bill has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentWaived  PaymentStatus = "Waived"
)

// PaymentMethod identifies how a bill was settled.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "Cash"
	PayMomoMTN  PaymentMethod = "MTN Mobile Money"
	PayMomoVoda PaymentMethod = "Vodafone Cash"
	PayMomoAT   PaymentMethod = "AirtelTigo Money"
	PayNHIS     PaymentMethod = "NHIS Claim"
	PayPOS      PaymentMethod = "Card / POS"
)

var validPaymentMethods = map[PaymentMethod]bool{
	PayCash:     true,
	PayMomoMTN:  true,
	PayMomoVoda: true,
	PayMomoAT:   true,
	PayNHIS:     true,
	PayPOS:      true,
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return validPaymentMethods[m]
}

// Vitals is a timestamped snapshot of basic physiological measurements.
// Individual measurements are optional; the triage nurse records whatever
// the lane equipment captured.
type Vitals struct {
	Temperature *float64  `json:"temperature,omitempty"`
	Systolic    *int      `json:"systolic,omitempty"`
	Diastolic   *int      `json:"diastolic,omitempty"`
	Pulse       *int      `json:"pulse,omitempty"`
	Weight      *float64  `json:"weight,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate rejects physiologically impossible readings before they reach
// the store.
func (v *Vitals) Validate() error {
	if v.Temperature != nil && (*v.Temperature < 25 || *v.Temperature > 45) {
		return fmt.Errorf("%w: temperature %.1f out of range", ErrInvalidInput, *v.Temperature)
	}
	if v.Systolic != nil && (*v.Systolic <= 0 || *v.Systolic > 300) {
		return fmt.Errorf("%w: systolic %d out of range", ErrInvalidInput, *v.Systolic)
	}
	if v.Diastolic != nil && (*v.Diastolic <= 0 || *v.Diastolic > 200) {
		return fmt.Errorf("%w: diastolic %d out of range", ErrInvalidInput, *v.Diastolic)
	}
	if v.Pulse != nil && (*v.Pulse <= 0 || *v.Pulse > 300) {
		return fmt.Errorf("%w: pulse %d out of range", ErrInvalidInput, *v.Pulse)
	}
	if v.Weight != nil && (*v.Weight <= 0 || *v.Weight > 500) {
		return fmt.Errorf("%w: weight %.1f out of range", ErrInvalidInput, *v.Weight)
	}
	return nil
}

func (v *Vitals) clone() *Vitals {
	if v == nil {
		return nil
	}
	cp := *v
	cp.Temperature = clonePtr(v.Temperature)
	cp.Systolic = clonePtr(v.Systolic)
	cp.Diastolic = clonePtr(v.Diastolic)
	cp.Pulse = clonePtr(v.Pulse)
	cp.Weight = clonePtr(v.Weight)
	return &cp
}

// PrescriptionItem is one line of a prescribed medication. The ID is
// assigned once at consultation and never reassigned; Dispensed only ever
// moves false to true.
type PrescriptionItem struct {
	ID        uuid.UUID `json:"id"`
	DrugName  string    `json:"drug_name"`
	Dosage    string    `json:"dosage"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Dispensed bool      `json:"dispensed"`
}

// Validate checks a prescription line before it is attached to a patient.
func (p *PrescriptionItem) Validate() error {
	if p.DrugName == "" {
		return fmt.Errorf("%w: drug name is required", ErrInvalidInput)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, p.Quantity)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative, got %.2f", ErrInvalidInput, p.Price)
	}
	return nil
}

// Patient is the authoritative record for one visitor moving through the
// drive-through lanes.
type Patient struct {
	ID            uuid.UUID          `json:"id"`
	OPDNumber     string             `json:"opd_number"`
	NHISNumber    *string            `json:"nhis_number,omitempty"`
	FullName      string             `json:"full_name"`
	Age           int                `json:"age"`
	Gender        string             `json:"gender"`
	VehiclePlate  string             `json:"vehicle_plate"`
	Stage         Stage              `json:"stage"`
	QueueNumber   string             `json:"queue_number"`
	ArrivalTime   time.Time          `json:"arrival_time"`
	Vitals        *Vitals            `json:"vitals,omitempty"`
	Symptoms      *string            `json:"symptoms,omitempty"`
	Diagnosis     *string            `json:"diagnosis,omitempty"`
	Prescriptions []PrescriptionItem `json:"prescriptions"`
	PaymentStatus PaymentStatus      `json:"payment_status"`
	PaymentMethod *PaymentMethod     `json:"payment_method,omitempty"`
	TotalBill     float64            `json:"total_bill"`
	IsPriority    bool               `json:"is_priority"`
}

// Clone returns a deep copy so store snapshots stay consistent for readers
// while the original is mutated.
func (p *Patient) Clone() *Patient {
	cp := *p
	cp.NHISNumber = clonePtr(p.NHISNumber)
	cp.Symptoms = clonePtr(p.Symptoms)
	cp.Diagnosis = clonePtr(p.Diagnosis)
	cp.PaymentMethod = clonePtr(p.PaymentMethod)
	cp.Vitals = p.Vitals.clone()
	if p.Prescriptions != nil {
		cp.Prescriptions = make([]PrescriptionItem, len(p.Prescriptions))
		copy(cp.Prescriptions, p.Prescriptions)
	}
	return &cp
}

// ComputeTotalBill sums price x quantity over all prescription lines. It is
// evaluated once, at the consultation-to-payment transition; the pharmacy
// stage only toggles dispensed flags and never changes the cached total.
func ComputeTotalBill(items []PrescriptionItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// AllDispensed reports whether every prescription line has been handed
// over. True for an empty list.
func AllDispensed(items []PrescriptionItem) bool {
	for _, it := range items {
		if !it.Dispensed {
			return false
		}
	}
	return true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

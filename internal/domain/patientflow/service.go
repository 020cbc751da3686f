package patientflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service applies the workflow rules on top of the store. Every mutation
// runs inside Repository.UpdateFunc, which serializes read-modify-write
// per patient under the store's write lock, so invariants hold under
// concurrent callers.
type Service struct {
	repo   Repository
	logger zerolog.Logger

	seqMu    sync.Mutex
	opdSeq   int
	queueSeq int
}

// NewService creates a workflow service over the given store.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RegisterInput carries the registration desk form.
type RegisterInput struct {
	FullName     string `json:"full_name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	NHISNumber   string `json:"nhis_number,omitempty"`
	VehiclePlate string `json:"vehicle_plate"`
	IsPriority   bool   `json:"is_priority"`
}

func (in *RegisterInput) validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if in.Age <= 0 || in.Age > 150 {
		return fmt.Errorf("%w: age must be between 1 and 150, got %d", ErrInvalidInput, in.Age)
	}
	if strings.TrimSpace(in.Gender) == "" {
		return fmt.Errorf("%w: gender is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.VehiclePlate) == "" {
		return fmt.Errorf("%w: vehicle plate is required", ErrInvalidInput)
	}
	return nil
}

// Register creates a new patient record. Freshly registered patients are
// placed directly into Triage; the nominal Registration stage is never
// assigned by this operation.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	opdNumber, queueNumber := s.nextNumbers()

	p := &Patient{
		ID:            uuid.New(),
		OPDNumber:     opdNumber,
		FullName:      strings.TrimSpace(in.FullName),
		Age:           in.Age,
		Gender:        strings.TrimSpace(in.Gender),
		VehiclePlate:  strings.TrimSpace(in.VehiclePlate),
		Stage:         StageTriage,
		QueueNumber:   queueNumber,
		ArrivalTime:   time.Now().UTC(),
		Prescriptions: []PrescriptionItem{},
		PaymentStatus: PaymentPending,
		IsPriority:    in.IsPriority,
	}
	if nhis := strings.TrimSpace(in.NHISNumber); nhis != "" {
		p.NHISNumber = &nhis
	}

	if err := s.repo.Add(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("patient_id", p.ID.String()).
		Str("opd_number", p.OPDNumber).
		Str("queue_number", p.QueueNumber).
		Bool("priority", p.IsPriority).
		Msg("patient registered")
	return p.Clone(), nil
}

// RecordVitals attaches a vitals snapshot and advances Triage to
// Consultation.
func (s *Service) RecordVitals(ctx context.Context, id uuid.UUID, vitals Vitals) (*Patient, error) {
	if err := vitals.Validate(); err != nil {
		return nil, err
	}

	if vitals.Timestamp.IsZero() {
		vitals.Timestamp = time.Now().UTC()
	}

	p, err := s.repo.UpdateFunc(ctx, id, func(p *Patient) error {
		next, err := NextStage(ActionRecordVitals, p.Stage)
		if err != nil {
			return err
		}
		p.Vitals = &vitals
		p.Stage = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", id.String()).Msg("vitals recorded")
	return p, nil
}

// PrescriptionInput is one prescription line as entered at consultation.
type PrescriptionInput struct {
	DrugName string  `json:"drug_name"`
	Dosage   string  `json:"dosage"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// FinalizeConsultation attaches diagnosis, symptoms and the prescription
// list, computes the bill total, and advances Consultation to Payment.
// The total is computed exactly once here; nothing recomputes it later.
func (s *Service) FinalizeConsultation(ctx context.Context, id uuid.UUID, diagnosis, symptoms string, items []PrescriptionInput) (*Patient, error) {
	if strings.TrimSpace(diagnosis) == "" {
		return nil, fmt.Errorf("%w: diagnosis is required", ErrInvalidInput)
	}

	prescriptions := make([]PrescriptionItem, 0, len(items))
	for i, in := range items {
		item := PrescriptionItem{
			ID:       uuid.New(),
			DrugName: strings.TrimSpace(in.DrugName),
			Dosage:   in.Dosage,
			Quantity: in.Quantity,
			Price:    in.Price,
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("prescription %d: %w", i+1, err)
		}
		prescriptions = append(prescriptions, item)
	}

	diagnosis = strings.TrimSpace(diagnosis)
	symptoms = strings.TrimSpace(symptoms)

	p, err := s.repo.UpdateFunc(ctx, id, func(p *Patient) error {
		next, err := NextStage(ActionFinalizeConsultation, p.Stage)
		if err != nil {
			return err
		}
		p.Diagnosis = &diagnosis
		if symptoms != "" {
			p.Symptoms = &symptoms
		}
		p.Prescriptions = prescriptions
		p.TotalBill = ComputeTotalBill(prescriptions)
		p.Stage = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("patient_id", id.String()).
		Int("prescriptions", len(prescriptions)).
		Float64("total_bill", p.TotalBill).
		Msg("consultation finalized")
	return p, nil
}

// RecordPayment marks the bill paid and advances Payment to Pharmacy.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, method PaymentMethod) (*Patient, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, method)
	}

	p, err := s.repo.UpdateFunc(ctx, id, func(p *Patient) error {
		next, err := NextStage(ActionRecordPayment, p.Stage)
		if err != nil {
			return err
		}
		p.PaymentStatus = PaymentPaid
		p.PaymentMethod = &method
		p.Stage = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("patient_id", id.String()).
		Str("method", string(method)).
		Float64("amount", p.TotalBill).
		Msg("payment recorded")
	return p, nil
}

// Dispense marks one prescription line as handed over. When the last
// outstanding line is dispensed the patient advances Pharmacy to
// Completed; otherwise the stage is unchanged. An unknown item id leaves
// the record untouched.
func (s *Service) Dispense(ctx context.Context, patientID, itemID uuid.UUID) (*Patient, error) {
	p, err := s.repo.UpdateFunc(ctx, patientID, func(p *Patient) error {
		if p.Stage != RequiredStage(ActionDispense) {
			return &WrongStageError{Action: ActionDispense, Current: p.Stage, Required: RequiredStage(ActionDispense)}
		}

		found := false
		for i := range p.Prescriptions {
			if p.Prescriptions[i].ID == itemID {
				p.Prescriptions[i].Dispensed = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrPrescriptionNotFound, itemID)
		}

		if AllDispensed(p.Prescriptions) {
			p.Stage = StageCompleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("patient_id", patientID.String()).
		Str("item_id", itemID.String()).
		Bool("completed", p.Stage == StageCompleted).
		Msg("medication dispensed")
	return p, nil
}

// OverrideStage is the raw administrative correction: it overwrites the
// stage without consulting the transition table and without resetting
// billing or clinical fields. Unknown stages and unknown patients are
// still rejected.
func (s *Service) OverrideStage(ctx context.Context, id uuid.UUID, stage Stage) (*Patient, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}

	var old Stage
	p, err := s.repo.UpdateFunc(ctx, id, func(p *Patient) error {
		old = p.Stage
		p.Stage = stage
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Warn().
		Str("patient_id", id.String()).
		Str("from", string(old)).
		Str("to", string(stage)).
		Msg("stage overridden")
	return p, nil
}

// GetPatient returns one patient snapshot.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

// ListPatients returns all patients in arrival order.
func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

// PatientsByStage returns the stage queue in arrival order. It reflects
// the latest committed store state at call time.
func (s *Service) PatientsByStage(ctx context.Context, stage Stage) ([]*Patient, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}
	return s.repo.ListByStage(ctx, stage)
}

// nextNumbers issues the next OPD and queue numbers. Sequences restart
// with the process, like every other piece of state here.
func (s *Service) nextNumbers() (opd string, queue string) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.opdSeq++
	s.queueSeq++
	return fmt.Sprintf("OPD-%d-%03d", time.Now().Year(), s.opdSeq),
		fmt.Sprintf("A%03d", s.queueSeq)
}

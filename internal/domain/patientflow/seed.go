package patientflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SeedDemo loads a handful of mid-flow demo patients so the role screens
// have something to show on a fresh start. Seeded records bypass the
// workflow operations because they represent patients who arrived before
// the process started, but they draw OPD and queue numbers from the live
// sequences so later registrations never collide with them.
func (s *Service) SeedDemo(ctx context.Context) error {
	now := time.Now().UTC()
	nhis1 := "12345678"
	nhis2 := "87654321"
	symptoms := "Headache, Fever, Body pains"
	diagnosis := "Malaria +"

	demo := []*Patient{
		{
			ID:            uuid.New(),
			NHISNumber:    &nhis1,
			FullName:      "Kwame Mensah",
			Age:           45,
			Gender:        "Male",
			VehiclePlate:  "GT-2023-23",
			Stage:         StageTriage,
			ArrivalTime:   now.Add(-15 * time.Minute),
			Prescriptions: []PrescriptionItem{},
			PaymentStatus: PaymentPending,
		},
		{
			ID:           uuid.New(),
			NHISNumber:   &nhis2,
			FullName:     "Ama Serwaa",
			Age:          68,
			Gender:       "Female",
			VehiclePlate: "AS-550-20",
			Stage:        StageConsultation,
			ArrivalTime:  now.Add(-30 * time.Minute),
			Vitals: &Vitals{
				Temperature: ptr(36.5),
				Systolic:    ptr(140),
				Diastolic:   ptr(90),
				Pulse:       ptr(78),
				Weight:      ptr(70.0),
				Timestamp:   now,
			},
			Prescriptions: []PrescriptionItem{},
			PaymentStatus: PaymentPending,
			IsPriority:    true, // elderly
		},
		{
			ID:           uuid.New(),
			FullName:     "Kofi Boateng",
			Age:          32,
			Gender:       "Male",
			VehiclePlate: "GW-999-19",
			Stage:        StagePharmacy,
			ArrivalTime:  now.Add(-45 * time.Minute),
			Vitals: &Vitals{
				Temperature: ptr(38.2),
				Systolic:    ptr(120),
				Diastolic:   ptr(80),
				Pulse:       ptr(95),
				Weight:      ptr(80.0),
				Timestamp:   now,
			},
			Symptoms:  &symptoms,
			Diagnosis: &diagnosis,
			Prescriptions: []PrescriptionItem{
				{ID: uuid.New(), DrugName: "Artemether-Lumefantrine", Dosage: "20/120mg", Quantity: 1, Price: 45},
				{ID: uuid.New(), DrugName: "Paracetamol", Dosage: "500mg", Quantity: 20, Price: 15},
			},
			PaymentStatus: PaymentPaid,
			PaymentMethod: ptr(PayMomoMTN),
			TotalBill:     345,
		},
	}

	for _, p := range demo {
		p.OPDNumber, p.QueueNumber = s.nextNumbers()
		if err := s.repo.Add(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

package patientflow

import "context"

// Stats is the admin dashboard summary, derived from the current store
// snapshot at call time.
type Stats struct {
	TotalPatients        int           `json:"total_patients"`
	ByStage              map[Stage]int `json:"by_stage"`
	PriorityCount        int           `json:"priority_count"`
	RevenueCollected     float64       `json:"revenue_collected"`
	PendingPayments      float64       `json:"pending_payments"`
	AvgPrescriptionItems float64       `json:"avg_prescription_items"`
}

// Stats aggregates the whole store. Revenue counts only paid bills;
// pending payments is the outstanding total for patients waiting at the
// cashier.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{ByStage: make(map[Stage]int, len(stageOrder))}
	for _, stage := range Stages() {
		st.ByStage[stage] = 0
	}

	consulted, items := 0, 0
	for _, p := range patients {
		st.TotalPatients++
		st.ByStage[p.Stage]++
		if p.IsPriority {
			st.PriorityCount++
		}
		if p.PaymentStatus == PaymentPaid {
			st.RevenueCollected += p.TotalBill
		} else if p.Stage == StagePayment {
			st.PendingPayments += p.TotalBill
		}
		if p.Diagnosis != nil {
			consulted++
			items += len(p.Prescriptions)
		}
	}
	if consulted > 0 {
		st.AvgPrescriptionItems = float64(items) / float64(consulted)
	}
	return st, nil
}

package patientflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStageOrder_Monotonic(t *testing.T) {
	stages := Stages()
	for i := 1; i < len(stages); i++ {
		if stages[i-1].Order() >= stages[i].Order() {
			t.Errorf("expected %s < %s in stage order", stages[i-1], stages[i])
		}
	}
}

func TestStage_Valid(t *testing.T) {
	for _, s := range Stages() {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Stage("Morgue").Valid() {
		t.Error("expected unknown stage to be invalid")
	}
	if Stage("Morgue").Order() != -1 {
		t.Error("expected unknown stage to sort before Registration")
	}
}

func TestPaymentMethod_Valid(t *testing.T) {
	for _, m := range []PaymentMethod{PayCash, PayMomoMTN, PayMomoVoda, PayMomoAT, PayNHIS, PayPOS} {
		if !m.Valid() {
			t.Errorf("expected %s to be valid", m)
		}
	}
	if PaymentMethod("Barter").Valid() {
		t.Error("expected unknown method to be invalid")
	}
}

func TestComputeTotalBill(t *testing.T) {
	tests := []struct {
		name  string
		items []PrescriptionItem
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []PrescriptionItem{{Price: 45, Quantity: 1}}, 45},
		{"two lines", []PrescriptionItem{{Price: 45, Quantity: 1}, {Price: 15, Quantity: 20}}, 345},
		{"zero price", []PrescriptionItem{{Price: 0, Quantity: 10}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTotalBill(tt.items); got != tt.want {
				t.Errorf("ComputeTotalBill() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllDispensed(t *testing.T) {
	if !AllDispensed(nil) {
		t.Error("expected empty list to count as fully dispensed")
	}
	items := []PrescriptionItem{{Dispensed: true}, {Dispensed: false}}
	if AllDispensed(items) {
		t.Error("expected one undispensed item to block completion")
	}
	items[1].Dispensed = true
	if !AllDispensed(items) {
		t.Error("expected all-dispensed list to pass")
	}
}

func TestVitals_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vitals  Vitals
		wantErr bool
	}{
		{"empty snapshot", Vitals{}, false},
		{"normal", Vitals{Temperature: ptr(36.5), Systolic: ptr(140), Diastolic: ptr(90), Pulse: ptr(78), Weight: ptr(70.0)}, false},
		{"temperature too high", Vitals{Temperature: ptr(50.0)}, true},
		{"systolic negative", Vitals{Systolic: ptr(-1)}, true},
		{"diastolic too high", Vitals{Diastolic: ptr(500)}, true},
		{"pulse zero", Vitals{Pulse: ptr(0)}, true},
		{"weight zero", Vitals{Weight: ptr(0.0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vitals.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrescriptionItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    PrescriptionItem
		wantErr bool
	}{
		{"valid", PrescriptionItem{DrugName: "Paracetamol", Quantity: 20, Price: 15}, false},
		{"free drug", PrescriptionItem{DrugName: "ORS Sachet", Quantity: 1, Price: 0}, false},
		{"no name", PrescriptionItem{Quantity: 1, Price: 5}, true},
		{"zero quantity", PrescriptionItem{DrugName: "Paracetamol", Quantity: 0, Price: 5}, true},
		{"negative price", PrescriptionItem{DrugName: "Paracetamol", Quantity: 1, Price: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatient_Clone_DeepCopy(t *testing.T) {
	nhis := "12345678"
	p := &Patient{
		ID:          uuid.New(),
		FullName:    "Kwame Mensah",
		NHISNumber:  &nhis,
		Stage:       StagePharmacy,
		ArrivalTime: time.Now(),
		Vitals:      &Vitals{Temperature: ptr(38.2)},
		Prescriptions: []PrescriptionItem{
			{ID: uuid.New(), DrugName: "Paracetamol", Quantity: 20, Price: 15},
		},
	}

	cp := p.Clone()
	cp.Prescriptions[0].Dispensed = true
	*cp.NHISNumber = "changed"
	*cp.Vitals.Temperature = 40.0
	cp.Stage = StageCompleted

	if p.Prescriptions[0].Dispensed {
		t.Error("clone shares prescription backing array with original")
	}
	if *p.NHISNumber != "12345678" {
		t.Error("clone shares NHIS pointer with original")
	}
	if *p.Vitals.Temperature != 38.2 {
		t.Error("clone shares vitals with original")
	}
	if p.Stage != StagePharmacy {
		t.Error("clone shares stage with original")
	}
}

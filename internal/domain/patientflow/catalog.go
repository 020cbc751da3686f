package patientflow

// Drug is one entry in the common drug picker used by the consultation
// screen.
type Drug struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CommonDrugs is the facility's quick-pick formulary. Prices are in GHS.
var CommonDrugs = []Drug{
	{Name: "Paracetamol 500mg", Price: 10},
	{Name: "Amoxicillin 500mg", Price: 25},
	{Name: "Ibuprofen 400mg", Price: 15},
	{Name: "Artemether-Lumefantrine", Price: 45},
	{Name: "Cetirizine 10mg", Price: 12},
	{Name: "Ciprofloxacin 500mg", Price: 30},
	{Name: "ORS Sachet", Price: 5},
	{Name: "Multivitamin Syrup", Price: 35},
}

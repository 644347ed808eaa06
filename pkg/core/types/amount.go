package types

// DucatsPerEPR defines the number of smallest units ("ducats") in 1 EPR.
const DucatsPerEPR uint64 = 100_000_000

// Amount represents a quantity of EPR in ducats (smallest indivisible unit).
type Amount uint64

// NewAmountFromEPR converts whole EPR to ducats.
func NewAmountFromEPR(epr uint64) Amount {
	return Amount(epr * DucatsPerEPR)
}

// ToEPR returns the floating-point EPR value (for display only, never arithmetic).
func (a Amount) ToEPR() float64 {
	return float64(a) / float64(DucatsPerEPR)
}

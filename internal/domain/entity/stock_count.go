package entity

import "time"

// CountStatus estado de una sesión de conteo.
type CountStatus string

const (
	CountInProgress CountStatus = "in-progress"
	CountCompleted  CountStatus = "completed"
)

// CountLine línea contada: Variance = ActualQty - SystemQty.
type CountLine struct {
	ProductID string
	BatchCode string
	SystemQty int64
	ActualQty int64
	Variance  int64
	CountedAt time.Time
}

// StockCountSession conteo físico periódico de una tienda. Dueña exclusiva de sus líneas.
type StockCountSession struct {
	ID                 string
	StoreID            string
	Date               time.Time
	CountedBy          string
	Status             CountStatus
	Lines              []CountLine
	ProductsCounted    int
	VariancesFound     int
	AdjustmentsApplied bool
	CompletedBy        string
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RecomputeTotals recalcula productos contados y varianzas encontradas.
func (s *StockCountSession) RecomputeTotals() {
	s.ProductsCounted = len(s.Lines)
	s.VariancesFound = 0
	for _, l := range s.Lines {
		if l.Variance != 0 {
			s.VariancesFound++
		}
	}
}

// Clone copia profunda.
func (s *StockCountSession) Clone() *StockCountSession {
	if s == nil {
		return nil
	}
	c := *s
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.Lines = append([]CountLine(nil), s.Lines...)
	return &c
}

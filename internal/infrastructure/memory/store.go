package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Ensure Store implements inventory.TxRunner.
var _ inventory.TxRunner = (*Store)(nil)

// state datos confirmados. Las entidades se guardan clonadas: nunca se comparten punteros con el llamador.
type state struct {
	records      map[string]*entity.StockRecord
	byKey        map[entity.StockKey]string
	movements    []*entity.Movement
	seq          int64
	reservations map[string]*entity.Reservation
	transfers    map[string]*entity.Transfer
	counts       map[string]*entity.StockCountSession
	escalations  map[string]*entity.Escalation
}

func newState() *state {
	return &state{
		records:      map[string]*entity.StockRecord{},
		byKey:        map[entity.StockKey]string{},
		reservations: map[string]*entity.Reservation{},
		transfers:    map[string]*entity.Transfer{},
		counts:       map[string]*entity.StockCountSession{},
		escalations:  map[string]*entity.Escalation{},
	}
}

// overlay copia superficial del estado: los mapas se copian, las entidades guardadas son inmutables
// (cada escritura reemplaza el puntero por un clon nuevo).
func (s *state) overlay() *state {
	o := &state{
		records:      make(map[string]*entity.StockRecord, len(s.records)),
		byKey:        make(map[entity.StockKey]string, len(s.byKey)),
		movements:    s.movements[:len(s.movements):len(s.movements)],
		seq:          s.seq,
		reservations: make(map[string]*entity.Reservation, len(s.reservations)),
		transfers:    make(map[string]*entity.Transfer, len(s.transfers)),
		counts:       make(map[string]*entity.StockCountSession, len(s.counts)),
		escalations:  make(map[string]*entity.Escalation, len(s.escalations)),
	}
	for k, v := range s.records {
		o.records[k] = v
	}
	for k, v := range s.byKey {
		o.byKey[k] = v
	}
	for k, v := range s.reservations {
		o.reservations[k] = v
	}
	for k, v := range s.transfers {
		o.transfers[k] = v
	}
	for k, v := range s.counts {
		o.counts[k] = v
	}
	for k, v := range s.escalations {
		o.escalations[k] = v
	}
	return o
}

// Store almacenamiento en memoria del ledger. Run serializa las transacciones con un mutex y
// trabaja sobre un overlay que solo se publica si fn no devuelve error.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Run ejecuta fn con repositorios atados a un overlay del estado; commit si fn devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.overlay()
	repos := inventory.Repos{
		Stock:        &stockRepo{st: tx},
		Movements:    &movementRepo{st: tx},
		Reservations: &reservationRepo{st: tx},
		Transfers:    &transferRepo{st: tx},
		Counts:       &countRepo{st: tx},
		Escalations:  &escalationRepo{st: tx},
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx
	return nil
}

package squad

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/optimizer"
	"github.com/aristath/fpl-planner/internal/modules/transfers"
	"github.com/aristath/fpl-planner/internal/modules/valuation"
	"github.com/aristath/fpl-planner/internal/snapshots"
)

// Provider is the slice of the data provider client the squad service
// consumes.
type Provider interface {
	GetBootstrap() (*fpl.Bootstrap, error)
	GetEntry(entryID int) (*fpl.Entry, error)
	GetPicks(entryID, event int) (*fpl.PicksResponse, error)
	GetTransfers(entryID int) ([]fpl.Transfer, error)
	GetHistory(entryID int) (*fpl.History, error)
}

// historyWindow is how many recent gameweeks the state carries.
const historyWindow = 5

// Service assembles the per-manager planning inputs from the provider,
// the snapshot cache, and the transfer ledger.
type Service struct {
	provider Provider
	cache    *snapshots.Store
	ledger   *transfers.Repository
	log      zerolog.Logger
}

// NewService creates a squad service.
func NewService(provider Provider, cache *snapshots.Store, ledger *transfers.Repository, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		ledger:   ledger,
		log:      log.With().Str("service", "squad").Logger(),
	}
}

// Load builds the full squad state for one manager: picks and bank
// from the provider, purchase prices replayed from the transfer
// ledger, selling prices from the half-profit rule, and the
// free-transfer estimate from last gameweek's activity.
func (s *Service) Load(entryID int) (*State, error) {
	if entryID <= 0 {
		return nil, &optimizer.InputError{Message: fmt.Sprintf("entry id %d is not valid", entryID)}
	}

	bootstrap, err := s.Bootstrap()
	if err != nil {
		return nil, fmt.Errorf("failed to load bootstrap: %w", err)
	}

	gw, err := fpl.CurrentGameweek(bootstrap)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current gameweek: %w", err)
	}

	picks, err := s.picks(entryID, gw)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks for entry %d: %w", entryID, err)
	}

	ledger, err := s.syncLedger(entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to sync transfer ledger for entry %d: %w", entryID, err)
	}

	state, err := s.assemble(entryID, gw, bootstrap, picks, ledger)
	if err != nil {
		return nil, err
	}

	s.decorate(state)

	s.log.Info().
		Int("entry_id", entryID).
		Int("event", state.Event).
		Str("bank", state.Bank.String()).
		Str("squad_value", state.SquadValue.String()).
		Int("free_transfers", state.FreeTransfers).
		Msg("Squad state loaded")

	return state, nil
}

// assemble values the picks and validates the squad shape. A malformed
// squad is a caller problem, not a server fault.
func (s *Service) assemble(entryID, event int, bootstrap *fpl.Bootstrap, picks *fpl.PicksResponse, ledger []domain.TransferRecord) (*State, error) {
	if len(picks.Picks) != domain.SquadSize {
		return nil, &optimizer.InputError{
			Message: fmt.Sprintf("entry %d has %d picks, want %d", entryID, len(picks.Picks), domain.SquadSize),
		}
	}

	elements := make(map[int]fpl.Element, len(bootstrap.Elements))
	for _, el := range bootstrap.Elements {
		elements[el.ID] = el
	}
	clubs := make(map[int]string, len(bootstrap.Teams))
	for _, club := range bootstrap.Teams {
		clubs[club.ID] = club.ShortName
	}

	purchases := valuation.PurchasePrices(ledger)

	squadPlayers := make([]SquadPlayer, 0, domain.SquadSize)
	sellingPrices := make([]domain.Tenths, 0, domain.SquadSize)
	quota := make(map[domain.Position]int)

	for _, pick := range picks.Picks {
		el, ok := elements[pick.Element]
		if !ok {
			return nil, &optimizer.InputError{
				Message: fmt.Sprintf("picked player %d is not in the bootstrap feed", pick.Element),
			}
		}

		purchase, selling := valuation.Value(el.ID, el.Price(), purchases)
		squadPlayers = append(squadPlayers, SquadPlayer{
			ID:            el.ID,
			Name:          el.WebName,
			Position:      el.Position(),
			ClubID:        el.Team,
			Club:          clubs[el.Team],
			Price:         el.Price(),
			PurchasePrice: purchase,
			SellingPrice:  selling,
			Form:          el.FormValue(),
			PointsPerGame: el.PointsPerGameValue(),
			Chance:        el.ChanceOfPlayingNextRound,
			IsCaptain:     pick.IsCaptain,
		})
		sellingPrices = append(sellingPrices, selling)
		quota[el.Position()]++
	}

	for _, pos := range domain.Positions {
		if quota[pos] != domain.SquadQuota[pos] {
			return nil, &optimizer.InputError{
				Message: fmt.Sprintf("entry %d squad has %d %s, want %d", entryID, quota[pos], pos, domain.SquadQuota[pos]),
			}
		}
	}

	priorEvent := event - 1
	priorTransfers, err := s.ledger.CountForEvent(entryID, priorEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to count prior transfers: %w", err)
	}

	bank := domain.Tenths(picks.EntryHistory.Bank)
	squadValue := valuation.SquadValue(sellingPrices)

	return &State{
		EntryID:       entryID,
		Event:         event,
		Players:       squadPlayers,
		Bank:          bank,
		SquadValue:    squadValue,
		Budget:        squadValue + bank,
		FreeTransfers: transfers.EstimateFreeTransfers(priorTransfers, priorEvent),
	}, nil
}

// decorate adds display-only context. Failures here never fail a load.
func (s *Service) decorate(state *State) {
	entry, err := s.provider.GetEntry(state.EntryID)
	if err != nil {
		s.log.Warn().Err(err).Int("entry_id", state.EntryID).Msg("Failed to fetch entry summary")
	} else {
		state.TeamName = entry.Name
		state.ManagerName = entry.PlayerFirstName + " " + entry.PlayerLastName
	}

	history, err := s.history(state.EntryID)
	if err != nil {
		s.log.Warn().Err(err).Int("entry_id", state.EntryID).Msg("Failed to fetch season history")
		return
	}

	rows := history.Current
	if len(rows) > historyWindow {
		rows = rows[len(rows)-historyWindow:]
	}
	state.History = rows
}

// Bootstrap returns the game-wide feed, from the snapshot cache when
// fresh. When the provider is down a stale snapshot is better than no
// answer.
func (s *Service) Bootstrap() (*fpl.Bootstrap, error) {
	var cached fpl.Bootstrap
	fresh, err := s.cache.GetIfFresh(snapshots.KindBootstrap, "global", &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("Snapshot read failed, fetching bootstrap directly")
	}
	if fresh {
		return &cached, nil
	}

	bootstrap, err := s.provider.GetBootstrap()
	if err != nil {
		if ok, cacheErr := s.cache.Get(snapshots.KindBootstrap, "global", &cached); cacheErr == nil && ok {
			s.log.Warn().Err(err).Msg("Provider unreachable, serving stale bootstrap snapshot")
			return &cached, nil
		}
		return nil, err
	}

	if err := s.cache.Put(snapshots.KindBootstrap, "global", bootstrap, snapshots.TTLBootstrap); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache bootstrap snapshot")
	}

	return bootstrap, nil
}

func (s *Service) picks(entryID, event int) (*fpl.PicksResponse, error) {
	key := fmt.Sprintf("%d:%d", entryID, event)

	var cached fpl.PicksResponse
	fresh, err := s.cache.GetIfFresh(snapshots.KindPicks, key, &cached)
	if err == nil && fresh {
		return &cached, nil
	}

	picks, err := s.provider.GetPicks(entryID, event)
	if err != nil {
		if ok, cacheErr := s.cache.Get(snapshots.KindPicks, key, &cached); cacheErr == nil && ok {
			s.log.Warn().Err(err).Int("entry_id", entryID).Msg("Provider unreachable, serving stale picks snapshot")
			return &cached, nil
		}
		return nil, err
	}

	if err := s.cache.Put(snapshots.KindPicks, key, picks, snapshots.TTLPicks); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache picks snapshot")
	}

	return picks, nil
}

// syncLedger pulls the provider's transfer list into the local ledger
// and replays the stored rows. The local ledger survives provider
// outages, so a fetch failure downgrades to the stored history.
func (s *Service) syncLedger(entryID int) ([]domain.TransferRecord, error) {
	wire, err := s.transferList(entryID)
	if err != nil {
		s.log.Warn().Err(err).Int("entry_id", entryID).Msg("Transfer fetch failed, replaying stored ledger")
	} else {
		records := make([]domain.TransferRecord, len(wire))
		for i, tr := range wire {
			records[i] = domain.TransferRecord{
				Event:         tr.Event,
				PlayerIn:      tr.ElementIn,
				PlayerInCost:  domain.Tenths(tr.ElementInCost),
				PlayerOut:     tr.ElementOut,
				PlayerOutCost: domain.Tenths(tr.ElementOutCost),
				Time:          tr.Time,
			}
		}

		added, err := s.ledger.Sync(entryID, records)
		if err != nil {
			return nil, fmt.Errorf("failed to store transfer ledger: %w", err)
		}
		if added > 0 {
			s.log.Info().Int("entry_id", entryID).Int("added", added).Msg("Transfer ledger synced")
		}
	}

	return s.ledger.GetLedger(entryID)
}

func (s *Service) transferList(entryID int) ([]fpl.Transfer, error) {
	key := fmt.Sprintf("%d", entryID)

	var cached []fpl.Transfer
	fresh, err := s.cache.GetIfFresh(snapshots.KindTransfers, key, &cached)
	if err == nil && fresh {
		return cached, nil
	}

	wire, err := s.provider.GetTransfers(entryID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(snapshots.KindTransfers, key, wire, snapshots.TTLTransfers); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache transfers snapshot")
	}

	return wire, nil
}

func (s *Service) history(entryID int) (*fpl.History, error) {
	key := fmt.Sprintf("%d", entryID)

	var cached fpl.History
	fresh, err := s.cache.GetIfFresh(snapshots.KindHistory, key, &cached)
	if err == nil && fresh {
		return &cached, nil
	}

	history, err := s.provider.GetHistory(entryID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(snapshots.KindHistory, key, history, snapshots.TTLHistory); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache history snapshot")
	}

	return history, nil
}

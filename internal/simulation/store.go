package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/model"
)

// RunRow is one stored episode.
type RunRow struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time

	Name  string
	Agent string `gorm:"index"`
	// Seed holds the uint64 seed bit for bit; sqlite integers are signed.
	Seed  int64
	Steps int

	TotalReward          float64
	FinalBalance         float64
	BalanceChange        float64
	PotentialProfit      float64
	PriceDiffProfit      float64
	UnscheduledBoughtMWh float64
	UnscheduledSoldMWh   float64

	SchedulingHour        int
	UnscheduledMultiplier float64
	BatteryCapacity       float64
	BatteryEfficiency     float64

	// Location and UTCOffset restore the clock's zone on load; sqlite
	// keeps only the offset of each timestamp.
	Location  string
	UTCOffset int
}

// TickRow is one stored TickRecord.
type TickRow struct {
	ID    uint   `gorm:"primaryKey"`
	RunID string `gorm:"index"`
	Tick  int
	Time  time.Time

	Price         float64
	Produced      float64
	Consumed      float64
	Battery       float64
	WalletBalance float64

	ScheduledBuy    *float64
	ScheduledBuyOK  *bool
	ScheduledSell   *float64
	ScheduledSellOK *bool

	UnscheduledBuy    float64
	UnscheduledBuyOK  bool
	UnscheduledSell   float64
	UnscheduledSellOK bool
}

// StepRow is one stored StepRecord. Action is kept as a JSON array.
type StepRow struct {
	ID    uint   `gorm:"primaryKey"`
	RunID string `gorm:"index"`
	Tick  int
	Time  time.Time

	BalanceDiff           float64
	PotentialProfit       *float64
	PriceDiffProfit       *float64
	UnscheduledSellProfit *float64
	UnscheduledBuyLoss    *float64
	Action                string
	Reward                *float64
}

const insertBatchSize = 500

// Store persists finished episodes to a local sqlite database.
type Store struct {
	db *gorm.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&RunRow{}, &TickRow{}, &StepRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun stores the summary and the full history in one transaction and
// returns the new run id.
func (s *Store) SaveRun(ctx context.Context, sum analysis.RunSummary, h *History) (string, error) {
	id := uuid.NewString()
	meta := h.Meta()
	run := RunRow{
		ID:                    id,
		Name:                  sum.Name,
		Agent:                 sum.Agent,
		Seed:                  int64(sum.Seed),
		Steps:                 sum.Steps,
		TotalReward:           sum.TotalReward,
		FinalBalance:          sum.FinalBalance,
		BalanceChange:         sum.BalanceChange,
		PotentialProfit:       sum.PotentialProfit,
		PriceDiffProfit:       sum.PriceDiffProfit,
		UnscheduledBoughtMWh:  sum.UnscheduledBoughtMWh,
		UnscheduledSoldMWh:    sum.UnscheduledSoldMWh,
		SchedulingHour:        meta.SchedulingHour,
		UnscheduledMultiplier: meta.UnscheduledMultiplier,
		BatteryCapacity:       meta.BatteryCapacity,
		BatteryEfficiency:     meta.BatteryEfficiency,
		Location:              time.UTC.String(),
	}
	if first, ok := h.At(0); ok {
		run.Location = first.Time.Location().String()
		_, run.UTCOffset = first.Time.Zone()
	}

	ticks := make([]TickRow, 0, h.Len())
	for _, r := range h.Ticks() {
		ticks = append(ticks, newTickRow(id, r))
	}
	steps := make([]StepRow, 0, len(h.Steps()))
	for _, r := range h.Steps() {
		row, err := newStepRow(id, r)
		if err != nil {
			return "", err
		}
		steps = append(steps, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(ticks) > 0 {
			if err := tx.CreateInBatches(ticks, insertBatchSize).Error; err != nil {
				return err
			}
		}
		if len(steps) > 0 {
			if err := tx.CreateInBatches(steps, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return id, nil
}

// ListRuns returns stored summaries, best total reward first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	var runs []RunRow
	query := s.db.WithContext(ctx).Order("total_reward desc, created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// LoadRun returns a stored run with its rebuilt history.
func (s *Store) LoadRun(ctx context.Context, id string) (RunRow, *History, error) {
	db := s.db.WithContext(ctx)
	var run RunRow
	if err := db.First(&run, "id = ?", id).Error; err != nil {
		return RunRow{}, nil, fmt.Errorf("load run %s: %w", id, err)
	}
	var ticks []TickRow
	if err := db.Where("run_id = ?", id).Order("tick asc").Find(&ticks).Error; err != nil {
		return RunRow{}, nil, err
	}
	var steps []StepRow
	if err := db.Where("run_id = ?", id).Order("tick asc").Find(&steps).Error; err != nil {
		return RunRow{}, nil, err
	}

	h := &History{meta: HistoryMeta{
		SchedulingHour:        run.SchedulingHour,
		UnscheduledMultiplier: run.UnscheduledMultiplier,
		BatteryCapacity:       run.BatteryCapacity,
		BatteryEfficiency:     run.BatteryEfficiency,
	}}
	loc := run.location()
	for _, t := range ticks {
		h.ticks = append(h.ticks, t.record(loc))
	}
	for _, st := range steps {
		rec, err := st.record(loc)
		if err != nil {
			return RunRow{}, nil, err
		}
		h.steps = append(h.steps, rec)
	}
	h.view = staticViewAfter(h.meta.SchedulingHour, h.ticks)

	return run, h, nil
}

// DeleteRun removes a run with its ticks and steps.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&TickRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&StepRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&RunRow{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r RunRow) Summary() analysis.RunSummary {
	return analysis.RunSummary{
		Name:                 r.Name,
		Agent:                r.Agent,
		Seed:                 uint64(r.Seed),
		Steps:                r.Steps,
		TotalReward:          r.TotalReward,
		FinalBalance:         r.FinalBalance,
		BalanceChange:        r.BalanceChange,
		PotentialProfit:      r.PotentialProfit,
		PriceDiffProfit:      r.PriceDiffProfit,
		UnscheduledBoughtMWh: r.UnscheduledBoughtMWh,
		UnscheduledSoldMWh:   r.UnscheduledSoldMWh,
	}
}

// location prefers the named zone and falls back to a fixed offset for
// unnamed or unknown zones.
func (r RunRow) location() *time.Location {
	if r.Location != "" {
		if loc, err := time.LoadLocation(r.Location); err == nil {
			return loc
		}
	}
	return time.FixedZone(r.Location, r.UTCOffset)
}

func newTickRow(runID string, r TickRecord) TickRow {
	row := TickRow{
		RunID:             runID,
		Tick:              r.Tick,
		Time:              r.Time,
		Price:             r.Price,
		Produced:          r.Produced,
		Consumed:          r.Consumed,
		Battery:           r.Battery,
		WalletBalance:     r.WalletBalance,
		UnscheduledBuy:    r.UnscheduledBuy.Amount,
		UnscheduledBuyOK:  r.UnscheduledBuy.OK,
		UnscheduledSell:   r.UnscheduledSell.Amount,
		UnscheduledSellOK: r.UnscheduledSell.OK,
	}
	if tx := r.ScheduledBuy; tx != nil {
		row.ScheduledBuy, row.ScheduledBuyOK = lo.ToPtr(tx.Amount), lo.ToPtr(tx.OK)
	}
	if tx := r.ScheduledSell; tx != nil {
		row.ScheduledSell, row.ScheduledSellOK = lo.ToPtr(tx.Amount), lo.ToPtr(tx.OK)
	}
	return row
}

func (t TickRow) record(loc *time.Location) TickRecord {
	rec := TickRecord{
		Tick:            t.Tick,
		Time:            t.Time.In(loc),
		Price:           t.Price,
		Produced:        t.Produced,
		Consumed:        t.Consumed,
		Battery:         t.Battery,
		WalletBalance:   t.WalletBalance,
		UnscheduledBuy:  model.Transaction{Amount: t.UnscheduledBuy, OK: t.UnscheduledBuyOK},
		UnscheduledSell: model.Transaction{Amount: t.UnscheduledSell, OK: t.UnscheduledSellOK},
	}
	if t.ScheduledBuy != nil {
		rec.ScheduledBuy = &model.Transaction{Amount: *t.ScheduledBuy, OK: t.ScheduledBuyOK != nil && *t.ScheduledBuyOK}
	}
	if t.ScheduledSell != nil {
		rec.ScheduledSell = &model.Transaction{Amount: *t.ScheduledSell, OK: t.ScheduledSellOK != nil && *t.ScheduledSellOK}
	}
	return rec
}

func newStepRow(runID string, r StepRecord) (StepRow, error) {
	action, err := json.Marshal(r.Action)
	if err != nil {
		return StepRow{}, fmt.Errorf("encode action: %w", err)
	}
	return StepRow{
		RunID:                 runID,
		Tick:                  r.Tick,
		Time:                  r.Time,
		BalanceDiff:           r.BalanceDiff,
		PotentialProfit:       r.PotentialProfit,
		PriceDiffProfit:       r.PriceDiffProfit,
		UnscheduledSellProfit: r.UnscheduledSellProfit,
		UnscheduledBuyLoss:    r.UnscheduledBuyLoss,
		Action:                string(action),
		Reward:                r.Reward,
	}, nil
}

func (s StepRow) record(loc *time.Location) (StepRecord, error) {
	var action []float64
	if err := json.Unmarshal([]byte(s.Action), &action); err != nil {
		return StepRecord{}, fmt.Errorf("decode action: %w", err)
	}
	return StepRecord{
		Tick:                  s.Tick,
		Time:                  s.Time.In(loc),
		BalanceDiff:           s.BalanceDiff,
		PotentialProfit:       s.PotentialProfit,
		PriceDiffProfit:       s.PriceDiffProfit,
		UnscheduledSellProfit: s.UnscheduledSellProfit,
		UnscheduledBuyLoss:    s.UnscheduledBuyLoss,
		Action:                action,
		Reward:                s.Reward,
	}, nil
}

// Package ledger persists the append-only decision history in sqlite.
package ledger

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/types"
)

// DecisionModel is the persisted row shape. Rows are inserted once and
// never updated or deleted; corrections are out of scope.
type DecisionModel struct {
	ID             uint      `gorm:"primaryKey"`
	Timestamp      time.Time `gorm:"not null;index"`
	Decision       string    `gorm:"size:8;not null"`
	Percentage     float64   `gorm:"not null"`
	Reason         string    `gorm:"type:text"`
	BTCBalance     float64   `gorm:"column:btc_balance"`
	KRWBalance     float64   `gorm:"column:krw_balance"`
	BTCAvgBuyPrice float64   `gorm:"column:btc_avg_buy_price"`
	BTCKRWPrice    float64   `gorm:"column:btc_krw_price"`
}

func (DecisionModel) TableName() string {
	return "decisions"
}

type Store struct {
	db *gorm.DB

	// now is replaceable in tests.
	now func() time.Time
}

var _ interfaces.Ledger = (*Store)(nil)

// Open opens (creating if needed) the sqlite decision store at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&DecisionModel{}); err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// NewWithDB wraps an existing gorm handle; used by tests with an
// in-memory database.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&DecisionModel{}); err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Append inserts one decision record. The single-row insert is
// implicitly atomic; the record's Timestamp field is ignored in favor
// of the store clock.
func (s *Store) Append(ctx context.Context, rec types.DecisionRecord) error {
	row := DecisionModel{
		Timestamp:      s.now(),
		Decision:       string(rec.Action),
		Percentage:     rec.Percentage,
		Reason:         rec.Reason,
		BTCBalance:     rec.BTCBalance,
		KRWBalance:     rec.KRWBalance,
		BTCAvgBuyPrice: rec.AvgBuyPrice,
		BTCKRWPrice:    rec.MarketPrice,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// FetchRecent returns the n most recent records newest-first, with
// timestamps normalized to milliseconds since the epoch for
// re-injection into the next tick's context.
func (s *Store) FetchRecent(ctx context.Context, n int) ([]types.DecisionRecord, error) {
	var rows []DecisionModel
	q := s.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.DecisionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.DecisionRecord{
			ID:          r.ID,
			Timestamp:   r.Timestamp.UnixMilli(),
			Action:      types.Action(r.Decision),
			Percentage:  r.Percentage,
			Reason:      r.Reason,
			BTCBalance:  r.BTCBalance,
			KRWBalance:  r.KRWBalance,
			AvgBuyPrice: r.BTCAvgBuyPrice,
			MarketPrice: r.BTCKRWPrice,
		})
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

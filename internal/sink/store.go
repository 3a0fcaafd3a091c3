package sink

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/conn"
	"main/pkg/exception"
)

// OrderRecord is the archived form of a handled order intent.
type OrderRecord struct {
	ID             uint `gorm:"primaryKey"`
	Symbol         string
	Side           string
	Quantity       int64
	Price          float64
	Sentiment      int
	ShortMA        float64
	LongMA         float64
	PositionBefore string
	PositionAfter  string
	Reason         string
	Notional       string
	CreatedAt      time.Time
}

// TableName pins the archive table name.
func (OrderRecord) TableName() string {
	return "orders"
}

// Store archives handled intents to PostgreSQL.
type Store struct {
	client  *conn.Client
	metrics *obs.Metrics
}

// NewStore migrates the archive table and returns a store handler.
// metrics may be nil.
func NewStore(client *conn.Client, metrics *obs.Metrics) (*Store, error) {
	if client == nil || client.DB() == nil {
		return nil, exception.ErrNilInstance
	}
	if err := client.DB().AutoMigrate(&OrderRecord{}); err != nil {
		return nil, err
	}
	return &Store{client: client, metrics: metrics}, nil
}

// HandleOrder inserts one archive row. Insert failures are logged and
// the row is skipped.
func (s *Store) HandleOrder(intent schema.OrderIntent) {
	record := OrderRecord{
		Symbol:         intent.Symbol,
		Side:           string(intent.Side),
		Quantity:       intent.Quantity,
		Price:          intent.Price,
		Sentiment:      intent.Sentiment,
		ShortMA:        intent.ShortMA,
		LongMA:         intent.LongMA,
		PositionBefore: string(intent.PositionBefore),
		PositionAfter:  string(intent.PositionAfter),
		Reason:         intent.Reason,
		Notional: decimal.NewFromFloat(intent.Price).
			Mul(decimal.NewFromInt(intent.Quantity)).
			StringFixed(2),
	}
	if err := s.client.DB().Create(&record).Error; err != nil {
		logs.Errorf("archive order %s %s: %+v", record.Side, record.Symbol, err)
		return
	}
	s.metrics.IncOrderStored()
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

package resolver

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourorg/notification-gateway/internal/domain"
	domainlogger "github.com/yourorg/notification-gateway/internal/logger"
)

// customerRow maps the CDC-sourced customers table a production deployment
// would resolve accounts against.
type customerRow struct {
	CustomerID  int64  `gorm:"column:customer_id"`
	AccountID   int64  `gorm:"column:account_id"`
	FirstName   string `gorm:"column:first_name"`
	LastName    string `gorm:"column:last_name"`
	Email       string `gorm:"column:email"`
	PhoneNumber string `gorm:"column:phone_number"`
}

func (customerRow) TableName() string { return "customers" }

// DBResolver resolves customer profiles from a Postgres-backed CUSTOMERS
// table kept current by an upstream change-data-capture pipeline.
type DBResolver struct {
	db  *gorm.DB
	log domainlogger.Logger
}

func NewDBResolver(dsn string, log domainlogger.Logger) (*DBResolver, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &DBResolver{db: db, log: log}, nil
}

func (r *DBResolver) Resolve(accountID int64) (domain.CustomerProfile, bool) {
	var row customerRow
	err := r.db.Where("account_id = ?", accountID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("customer not found", map[string]any{"accountId": accountID})
		return domain.CustomerProfile{}, false
	}
	if err != nil {
		r.log.Error("customer resolve query failed", err, map[string]any{"accountId": accountID})
		return domain.CustomerProfile{}, false
	}
	return domain.CustomerProfile{
		CustomerID: row.CustomerID, AccountID: row.AccountID,
		FirstName: row.FirstName, LastName: row.LastName,
		Email: row.Email, Phone: row.PhoneNumber,
	}, true
}

func (r *DBResolver) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

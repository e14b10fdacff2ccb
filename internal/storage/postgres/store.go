package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/models"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"
)

const uniqueViolation = "23505"

// Open connects through lib/pq and hands the pool to gorm.
func Open(dsn string, maxOpenConns int) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.LedgerEntry{},
		&models.Company{},
		&models.Campaign{},
		&models.Investment{},
		&models.Settlement{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// PostgresLedgerStore relies on gorm's soft-delete scope: every query on
// a model with a DeletedAt column filters deleted_at IS NULL.
type PostgresLedgerStore struct {
	db *gorm.DB
}

func NewPostgresLedgerStore(db *gorm.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

func (p *PostgresLedgerStore) WithTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresLedgerStore{db: tx})
	})
}

func (p *PostgresLedgerStore) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	return translate("save entry", p.db.WithContext(ctx).Create(&entry).Error)
}

func (p *PostgresLedgerStore) SoftDeleteEntry(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Delete(&models.LedgerEntry{}, "id = ?", id)
	return affected("soft delete entry", res)
}

func (p *PostgresLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := p.db.WithContext(ctx).Order("created_at").Find(&entries).Error
	if err != nil {
		return nil, storage.Wrap("get ledger entries", err)
	}
	return entries, nil
}

func (p *PostgresLedgerStore) GetEntriesByParty(ctx context.Context, partyID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := p.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at").
		Find(&entries).Error
	if err != nil {
		return nil, storage.Wrap("get entries by party", err)
	}
	return entries, nil
}

func (p *PostgresLedgerStore) SaveCompany(ctx context.Context, company models.Company) error {
	return translate("save company", p.db.WithContext(ctx).Create(&company).Error)
}

func (p *PostgresLedgerStore) GetCompany(ctx context.Context, id string) (models.Company, error) {
	var company models.Company
	err := p.db.WithContext(ctx).First(&company, "id = ?", id).Error
	return company, translate("get company", err)
}

// LockCompany issues SELECT ... FOR UPDATE. Settlements and investments
// for the same company queue behind each other on this row.
func (p *PostgresLedgerStore) LockCompany(ctx context.Context, id string) (models.Company, error) {
	var company models.Company
	err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&company, "id = ?", id).Error
	return company, translate("lock company", err)
}

func (p *PostgresLedgerStore) SaveCampaign(ctx context.Context, campaign models.Campaign) error {
	return translate("save campaign", p.db.WithContext(ctx).Create(&campaign).Error)
}

func (p *PostgresLedgerStore) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	var campaign models.Campaign
	err := p.db.WithContext(ctx).First(&campaign, "id = ?", id).Error
	return campaign, translate("get campaign", err)
}

func (p *PostgresLedgerStore) GetCampaignsByStatus(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := p.db.WithContext(ctx).
		Where("status = ?", status).
		Order("started").
		Find(&campaigns).Error
	if err != nil {
		return nil, storage.Wrap("get campaigns by status", err)
	}
	return campaigns, nil
}

func (p *PostgresLedgerStore) UpdateCampaignStatus(ctx context.Context, id string, from, to models.CampaignStatus) error {
	res := p.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return storage.Wrap("update campaign status", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	if _, err := p.GetCampaign(ctx, id); err != nil {
		return err
	}
	return storage.ErrConflict
}

func (p *PostgresLedgerStore) SaveInvestment(ctx context.Context, investment models.Investment) error {
	return translate("save investment", p.db.WithContext(ctx).Create(&investment).Error)
}

func (p *PostgresLedgerStore) GetInvestment(ctx context.Context, id string) (models.Investment, error) {
	var investment models.Investment
	err := p.db.WithContext(ctx).First(&investment, "id = ?", id).Error
	return investment, translate("get investment", err)
}

func (p *PostgresLedgerStore) GetInvestmentsByCompany(ctx context.Context, companyID string) ([]models.Investment, error) {
	var investments []models.Investment
	err := p.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at").
		Find(&investments).Error
	if err != nil {
		return nil, storage.Wrap("get investments by company", err)
	}
	return investments, nil
}

func (p *PostgresLedgerStore) SoftDeleteInvestment(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Delete(&models.Investment{}, "id = ?", id)
	return affected("soft delete investment", res)
}

func (p *PostgresLedgerStore) SaveSettlement(ctx context.Context, settlement models.Settlement) error {
	return translate("save settlement", p.db.WithContext(ctx).Create(&settlement).Error)
}

func (p *PostgresLedgerStore) GetSettlement(ctx context.Context, companyID string) (models.Settlement, error) {
	var settlement models.Settlement
	err := p.db.WithContext(ctx).First(&settlement, "company_id = ?", companyID).Error
	return settlement, translate("get settlement", err)
}

// translate maps driver errors onto the storage sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return storage.ErrDuplicate
	}
	return storage.Wrap(op, err)
}

func affected(op string, res *gorm.DB) error {
	if res.Error != nil {
		return storage.Wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ interfaces.Store = (*PostgresLedgerStore)(nil)

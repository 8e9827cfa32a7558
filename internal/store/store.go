package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awaistahir/eterna/internal/engine"
	"github.com/awaistahir/eterna/internal/prices"
	_ "modernc.org/sqlite"
)

// DefaultHousehold is the single household the dashboard manages
const DefaultHousehold = "default"

var ErrNotFound = errors.New("not found")

// Store handles persistent storage using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS households (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		home_size TEXT NOT NULL DEFAULT '2BHK',
		working_hours INTEGER NOT NULL DEFAULT 8,
		ac_temp INTEGER NOT NULL DEFAULT 24,
		eco_mode INTEGER NOT NULL DEFAULT 1,
		comfort TEXT NOT NULL DEFAULT 'Balanced',
		monthly_budget REAL NOT NULL DEFAULT 300,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tariffs (
		household_id TEXT PRIMARY KEY,
		peak_start_hour INTEGER NOT NULL,
		peak_end_hour INTEGER NOT NULL,
		peak_rate REAL NOT NULL,
		off_peak_rate REAL NOT NULL,
		flat_rate REAL NOT NULL,
		currency TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (household_id) REFERENCES households(id)
	);

	CREATE TABLE IF NOT EXISTS price_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		region TEXT NOT NULL,
		date TEXT NOT NULL,
		slots TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(region, date)
	);

	CREATE INDEX IF NOT EXISTS idx_price_cache_date ON price_cache(region, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveHousehold saves or updates a household's preferences
func (s *Store) SaveHousehold(id string, p engine.UserPreferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO households
		(id, name, home_size, working_hours, ac_temp, eco_mode, comfort, monthly_budget, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			home_size = excluded.home_size,
			working_hours = excluded.working_hours,
			ac_temp = excluded.ac_temp,
			eco_mode = excluded.eco_mode,
			comfort = excluded.comfort,
			monthly_budget = excluded.monthly_budget,
			updated_at = excluded.updated_at`

	_, err := s.db.Exec(query, id, p.Name, string(p.HomeSize), p.WorkingHours, p.ACTempC,
		boolToInt(p.EcoMode), string(p.Comfort), p.MonthlyBudget, time.Now())
	if err != nil {
		return fmt.Errorf("saving household: %w", err)
	}
	return nil
}

// GetHousehold retrieves a household's preferences by ID
func (s *Store) GetHousehold(id string) (engine.UserPreferences, error) {
	query := `SELECT name, home_size, working_hours, ac_temp, eco_mode, comfort, monthly_budget
		FROM households WHERE id = ?`

	var p engine.UserPreferences
	var homeSize, comfort string
	var ecoInt int

	err := s.db.QueryRow(query, id).Scan(&p.Name, &homeSize, &p.WorkingHours, &p.ACTempC, &ecoInt,
		&comfort, &p.MonthlyBudget)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.UserPreferences{}, fmt.Errorf("household %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return engine.UserPreferences{}, fmt.Errorf("querying household: %w", err)
	}

	p.HomeSize = engine.HomeSize(homeSize)
	p.Comfort = engine.ComfortProfile(comfort)
	p.EcoMode = ecoInt == 1

	return p, nil
}

// HouseholdOrDefault returns the saved preferences, or the defaults before anything was saved
func (s *Store) HouseholdOrDefault(id string) (engine.UserPreferences, error) {
	p, err := s.GetHousehold(id)
	if errors.Is(err, ErrNotFound) {
		return engine.DefaultPreferences(), nil
	}
	return p, err
}

// SaveTariff saves or replaces the tariff for a household
func (s *Store) SaveTariff(householdID string, t engine.PricingConfig) error {
	if err := t.Validate(); err != nil {
		return err
	}

	query := `INSERT OR REPLACE INTO tariffs
		(household_id, peak_start_hour, peak_end_hour, peak_rate, off_peak_rate, flat_rate, currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, householdID, t.PeakStartHour, t.PeakEndHour, t.PeakRate, t.OffPeakRate,
		t.FlatRate, t.Currency, time.Now())
	if err != nil {
		return fmt.Errorf("saving tariff: %w", err)
	}
	return nil
}

// GetTariff retrieves the tariff for a household
func (s *Store) GetTariff(householdID string) (engine.PricingConfig, error) {
	query := `SELECT peak_start_hour, peak_end_hour, peak_rate, off_peak_rate, flat_rate, currency
		FROM tariffs WHERE household_id = ?`

	var t engine.PricingConfig
	err := s.db.QueryRow(query, householdID).Scan(&t.PeakStartHour, &t.PeakEndHour, &t.PeakRate,
		&t.OffPeakRate, &t.FlatRate, &t.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.PricingConfig{}, fmt.Errorf("tariff for %s: %w", householdID, ErrNotFound)
	}
	if err != nil {
		return engine.PricingConfig{}, fmt.Errorf("querying tariff: %w", err)
	}

	return t, nil
}

// TariffOr returns the saved tariff, or fallback before anything was saved
func (s *Store) TariffOr(householdID string, fallback engine.PricingConfig) (engine.PricingConfig, error) {
	t, err := s.GetTariff(householdID)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	return t, err
}

// CachePrices stores fetched prices
func (s *Store) CachePrices(region string, date time.Time, slots []prices.PriceSlot) error {
	slotsJSON, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encoding price slots: %w", err)
	}
	dateStr := date.Format("2006-01-02")

	query := `INSERT OR REPLACE INTO price_cache (region, date, slots, fetched_at)
		VALUES (?, ?, ?, ?)`

	if _, err := s.db.Exec(query, region, dateStr, string(slotsJSON), time.Now()); err != nil {
		return fmt.Errorf("caching prices: %w", err)
	}
	return nil
}

// GetCachedPrices retrieves cached prices
func (s *Store) GetCachedPrices(region string, date time.Time) ([]prices.PriceSlot, error) {
	dateStr := date.Format("2006-01-02")
	query := `SELECT slots FROM price_cache WHERE region = ? AND date = ?`

	var slotsJSON string
	err := s.db.QueryRow(query, region, dateStr).Scan(&slotsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prices for %s on %s: %w", region, dateStr, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying cached prices: %w", err)
	}

	var slots []prices.PriceSlot
	if err := json.Unmarshal([]byte(slotsJSON), &slots); err != nil {
		return nil, fmt.Errorf("decoding cached prices: %w", err)
	}

	return slots, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// cmd/tools/portfolio-seeder/main.go
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"renewal-workers/internal/common/config"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS assets (
	asset_id          TEXT PRIMARY KEY,
	customer          TEXT NOT NULL,
	customer_type     TEXT NOT NULL,
	product           TEXT NOT NULL,
	contract_value    NUMERIC NOT NULL,
	contract_start    DATE NOT NULL,
	contract_end      DATE NOT NULL,
	usage_pct         NUMERIC NOT NULL DEFAULT 0,
	usage_decline_pct NUMERIC NOT NULL DEFAULT 0,
	asset_age_years   NUMERIC NOT NULL DEFAULT 0,
	last_discount_pct NUMERIC NOT NULL DEFAULT 0,
	licensing         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS customer_contacts (
	customer      TEXT PRIMARY KEY,
	contact_email TEXT NOT NULL DEFAULT '',
	contact_phone TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS renewal_decisions (
	id                      BIGSERIAL PRIMARY KEY,
	asset_id                TEXT NOT NULL REFERENCES assets(asset_id),
	product                 TEXT NOT NULL,
	priority                TEXT NOT NULL,
	status                  TEXT NOT NULL,
	expansion               TEXT NOT NULL,
	expected_revenue_impact NUMERIC NOT NULL,
	probability_to_close    NUMERIC NOT NULL,
	probability_band        TEXT NOT NULL,
	explanation             TEXT NOT NULL DEFAULT '',
	explanation_source      TEXT NOT NULL DEFAULT '',
	decided_at              TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS quotes (
	quote_id        TEXT PRIMARY KEY,
	version         INTEGER NOT NULL,
	parent_quote_id TEXT,
	asset_id        TEXT NOT NULL REFERENCES assets(asset_id),
	customer        TEXT NOT NULL,
	lines           JSONB NOT NULL,
	subtotal        NUMERIC NOT NULL,
	discount_pct    NUMERIC NOT NULL,
	discount_amt    NUMERIC NOT NULL,
	discount_reason TEXT,
	discount_source TEXT NOT NULL,
	total           NUMERIC NOT NULL,
	term_start      DATE NOT NULL,
	term_end        DATE NOT NULL,
	service_level   TEXT NOT NULL,
	status          TEXT NOT NULL,
	decision        TEXT,
	decision_reason TEXT,
	decided_at      TEXT,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_asset ON renewal_decisions(asset_id);
CREATE INDEX IF NOT EXISTS idx_quotes_asset ON quotes(asset_id);
`

type seedAsset struct {
	assetID         string
	customer        string
	customerType    string
	product         string
	contractValue   float64
	contractStart   string
	contractEnd     string
	usagePct        float64
	usageDeclinePct float64
	assetAgeYears   float64
	lastDiscountPct float64
	licensing       string
}

// Sample portfolio exercising every pipeline branch: a high-usage enterprise
// asset ripe for upsell, a declining asset inside the expiry window, and a
// healthy high-value asset about to expire. Contract dates are offsets from
// today so the expiry rules fire the same way on every reseed.
func samplePortfolio(now time.Time) []seedAsset {
	date := func(days int) string { return now.AddDate(0, 0, days).Format("2006-01-02") }
	return []seedAsset{
		{
			assetID: "A-10001", customer: "ABC Corp", customerType: "Enterprise",
			product: "Servers", contractValue: 42000,
			contractStart: date(-900), contractEnd: date(120),
			usagePct: 88, usageDeclinePct: 5, assetAgeYears: 4.2,
			lastDiscountPct: 10, licensing: "Per-core",
		},
		{
			assetID: "A-10002", customer: "Delta Inc", customerType: "SMB",
			product: "Storage", contractValue: 12000,
			contractStart: date(-600), contractEnd: date(45),
			usagePct: 35, usageDeclinePct: 55, assetAgeYears: 1.3,
			lastDiscountPct: 18, licensing: "Capacity",
		},
		{
			assetID: "A-10003", customer: "Zento Pvt Ltd", customerType: "Enterprise",
			product: "Networking", contractValue: 68000,
			contractStart: date(-1200), contractEnd: date(20),
			usagePct: 92, usageDeclinePct: 0, assetAgeYears: 5.1,
			lastDiscountPct: 5, licensing: "Enterprise",
		},
	}
}

var sampleContacts = [][3]string{
	{"ABC Corp", "renewals@abccorp.example", "+15550100"},
	{"Delta Inc", "it-procurement@deltainc.example", "+15550101"},
	{"Zento Pvt Ltd", "admin@zento.example", ""},
}

func main() {
	schemaOnly := flag.Bool("schema-only", false, "Create tables without seeding sample data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config load failed: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.Postgres.GetDSN())
	if err != nil {
		fmt.Printf("postgres open failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Printf("postgres ping failed: %v\n", err)
		os.Exit(1)
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		fmt.Printf("schema creation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Schema ready.")

	if *schemaOnly {
		return
	}

	assets := samplePortfolio(time.Now())
	if err := seed(db, assets); err != nil {
		fmt.Printf("seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d assets and %d contacts.\n", len(assets), len(sampleContacts))
}

func seed(db *sql.DB, assets []seedAsset) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, a := range assets {
		_, err := tx.Exec(`
			INSERT INTO assets (
				asset_id, customer, customer_type, product, contract_value,
				contract_start, contract_end, usage_pct, usage_decline_pct,
				asset_age_years, last_discount_pct, licensing
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (asset_id) DO UPDATE SET
				customer = EXCLUDED.customer,
				contract_value = EXCLUDED.contract_value,
				contract_end = EXCLUDED.contract_end,
				usage_pct = EXCLUDED.usage_pct,
				usage_decline_pct = EXCLUDED.usage_decline_pct`,
			a.assetID, a.customer, a.customerType, a.product, a.contractValue,
			a.contractStart, a.contractEnd, a.usagePct, a.usageDeclinePct,
			a.assetAgeYears, a.lastDiscountPct, a.licensing,
		)
		if err != nil {
			return fmt.Errorf("insert asset %s: %w", a.assetID, err)
		}
	}

	for _, c := range sampleContacts {
		_, err := tx.Exec(`
			INSERT INTO customer_contacts (customer, contact_email, contact_phone)
			VALUES ($1, $2, $3)
			ON CONFLICT (customer) DO UPDATE SET
				contact_email = EXCLUDED.contact_email,
				contact_phone = EXCLUDED.contact_phone`,
			c[0], c[1], c[2],
		)
		if err != nil {
			return fmt.Errorf("insert contact %s: %w", c[0], err)
		}
	}

	return tx.Commit()
}

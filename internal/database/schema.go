package database

// Schema defines every table the engine touches. The domain tables
// (plans, ledger records, customers, bank data, employees) are written
// by the ingestion side of the platform and only read here. The single
// table this service writes is health_score_snapshots, and that table
// is append-only: rows are inserted and optionally archived, never
// updated in place.
const Schema = `
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    fiscal_year INTEGER NOT NULL,
    kind TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_org_year_kind ON plans(org_id, fiscal_year, kind);

CREATE TABLE IF NOT EXISTS plan_line_items (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL REFERENCES plans(id),
    category TEXT NOT NULL,
    subcategory TEXT,
    account_ref TEXT,
    name TEXT NOT NULL,
    annual_amount REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_line_items_plan ON plan_line_items(plan_id);

CREATE TABLE IF NOT EXISTS plan_line_amounts (
    line_item_id TEXT NOT NULL REFERENCES plan_line_items(id),
    month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    amount REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (line_item_id, month)
);

CREATE TABLE IF NOT EXISTS planned_roles (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL REFERENCES plans(id),
    department TEXT NOT NULL,
    level TEXT NOT NULL,
    title TEXT NOT NULL,
    annual_salary REAL NOT NULL DEFAULT 0,
    benefits_percent REAL NOT NULL DEFAULT 0,
    start_month INTEGER NOT NULL DEFAULT 1,
    end_month INTEGER NOT NULL DEFAULT 12,
    headcount INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_planned_roles_plan ON planned_roles(plan_id);

CREATE TABLE IF NOT EXISTS planned_role_costs (
    role_id TEXT NOT NULL REFERENCES planned_roles(id),
    month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    amount REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (role_id, month)
);

CREATE TABLE IF NOT EXISTS employees (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    department TEXT NOT NULL,
    level TEXT NOT NULL,
    annual_salary REAL NOT NULL DEFAULT 0,
    benefits_percent REAL NOT NULL DEFAULT 0,
    hired_at TEXT NOT NULL,
    ended_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_employees_org ON employees(org_id);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    category TEXT NOT NULL,
    account_ref TEXT,
    amount REAL NOT NULL,
    status TEXT NOT NULL,
    incurred_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_org_date ON expenses(org_id, incurred_at);

CREATE TABLE IF NOT EXISTS revenue_entries (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    category TEXT NOT NULL,
    account_ref TEXT,
    amount REAL NOT NULL,
    status TEXT NOT NULL,
    received_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_revenue_org_date ON revenue_entries(org_id, received_at);

CREATE TABLE IF NOT EXISTS bank_accounts (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    name TEXT NOT NULL,
    balance REAL NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bank_accounts_org ON bank_accounts(org_id);

CREATE TABLE IF NOT EXISTS bank_transactions (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    account_id TEXT NOT NULL REFERENCES bank_accounts(id),
    amount REAL NOT NULL,
    posted_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bank_tx_org_date ON bank_transactions(org_id, posted_at);

CREATE TABLE IF NOT EXISTS customers (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    subscription_status TEXT NOT NULL DEFAULT 'none',
    subscription_start TEXT,
    subscription_end TEXT,
    monthly_value REAL NOT NULL DEFAULT 0,
    lifetime_revenue REAL NOT NULL DEFAULT 0,
    first_purchase_at TEXT,
    last_activity_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_customers_org_created ON customers(org_id, created_at);

CREATE TABLE IF NOT EXISTS health_score_snapshots (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    calculated_at TEXT NOT NULL,
    overall_score REAL NOT NULL,
    overall_status TEXT NOT NULL,
    previous_score REAL,
    score_change REAL,
    payload BLOB NOT NULL,
    archived INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_snapshots_org_date ON health_score_snapshots(org_id, calculated_at);
`

package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    project_id           TEXT PRIMARY KEY,
    name                 TEXT NOT NULL UNIQUE,
    budget               REAL NOT NULL,
    currency             TEXT NOT NULL,
    start_date           TEXT,
    end_date             TEXT,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    expense_id           TEXT PRIMARY KEY,
    project_id           TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
    amount               REAL NOT NULL,
    currency             TEXT NOT NULL,
    conversion_rate      REAL,
    converted_amount     REAL,
    category             TEXT,
    description          TEXT,
    recorded_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_project ON expenses(project_id);
CREATE INDEX IF NOT EXISTS idx_expenses_recorded ON expenses(recorded_at);
`

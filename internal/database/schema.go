package database

// schema holds one row per decision; the nested records are JSONB
const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id              UUID PRIMARY KEY,
	race_id         TEXT NOT NULL,
	budget          DOUBLE PRECISION NOT NULL,
	risk_tolerance  DOUBLE PRECISION NOT NULL,
	total_fraction  DOUBLE PRECISION NOT NULL,
	total_amount    DOUBLE PRECISION NOT NULL,
	renormalized    BOOLEAN NOT NULL DEFAULT FALSE,
	distortions     JSONB NOT NULL,
	opportunities   JSONB NOT NULL,
	portfolio       JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_decisions_race_id ON decisions (race_id);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions (created_at);
`

package postgres

// schema is applied on open; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id              BIGINT PRIMARY KEY,
	farmer_username TEXT NOT NULL,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	quantity        TEXT NOT NULL DEFAULT '',
	quality         TEXT NOT NULL DEFAULT '',
	price           NUMERIC NOT NULL CHECK (price >= 0),
	is_auction      BOOLEAN NOT NULL,
	end_date        TIMESTAMPTZ,
	sold            BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL,
	CHECK (is_auction = (end_date IS NOT NULL))
);

CREATE TABLE IF NOT EXISTS bids (
	seq            BIGSERIAL,
	id             UUID PRIMARY KEY,
	product_id     BIGINT NOT NULL,
	buyer_username TEXT NOT NULL,
	amount         NUMERIC NOT NULL,
	timestamp      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bids_product_id ON bids(product_id);

CREATE TABLE IF NOT EXISTS farmers (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	verified      BOOLEAN NOT NULL DEFAULT FALSE,
	certificates  TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

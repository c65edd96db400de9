package storage

// Schema contains the SQL statements to create the samples schema.
// Mirrors the append-only table the hub has always used: one row per
// observation, rowid preserving insertion order.
const Schema = `
CREATE TABLE IF NOT EXISTS samples (
    id INTEGER PRIMARY KEY,
    service TEXT NOT NULL,
    uptime INTEGER NOT NULL,
    requests INTEGER NOT NULL,
    ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_service_ts ON samples (service, ts);
`

// InsertSample appends one observation row.
const InsertSample = `
INSERT INTO samples (service, uptime, requests, ts) VALUES (?, ?, ?, ?)
`

// SelectDistinctServices lists every service name seen so far.
const SelectDistinctServices = `
SELECT DISTINCT service FROM samples ORDER BY service
`

// SelectSeriesSince returns one service's series from a timestamp
// onwards, ascending, with rowid breaking timestamp ties in insertion
// order.
const SelectSeriesSince = `
SELECT ts, uptime, requests FROM samples
WHERE service = ? AND ts >= ?
ORDER BY ts ASC, id ASC
`

// SelectLatestPerService returns the max-timestamp row per service,
// ties broken by the highest rowid (latest insertion).
const SelectLatestPerService = `
SELECT s.service, s.uptime, s.requests, s.ts
FROM samples s
JOIN (
    SELECT service, MAX(ts) AS max_ts
    FROM samples
    GROUP BY service
) latest ON s.service = latest.service AND s.ts = latest.max_ts
WHERE s.id = (
    SELECT MAX(id) FROM samples
    WHERE service = s.service AND ts = s.ts
)
`

// SelectRowCount returns the total number of persisted samples.
const SelectRowCount = `
SELECT COUNT(*) FROM samples
`

// SelectGlobalLatestTS returns the newest timestamp across services;
// NULL when the table is empty.
const SelectGlobalLatestTS = `
SELECT MAX(ts) FROM samples
`

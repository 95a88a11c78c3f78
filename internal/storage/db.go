package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"labqc/internal"
	"labqc/internal/rules"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS samples (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sampleNumber TEXT NOT NULL UNIQUE,
  formId INTEGER NOT NULL,
  site TEXT NOT NULL,
  productFamily TEXT NOT NULL,
  productType TEXT NOT NULL DEFAULT '',
  ajDlc TEXT NOT NULL DEFAULT '',
  measurementsJson TEXT NOT NULL DEFAULT '{}',
  verdict TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_samples_formId ON samples(formId);
CREATE INDEX IF NOT EXISTS idx_samples_family ON samples(productFamily);

CREATE TABLE IF NOT EXISTS rules (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  site TEXT NOT NULL DEFAULT '*',
  productFamily TEXT NOT NULL,
  analyte TEXT NOT NULL,
  operator TEXT NOT NULL,
  lowerBound REAL,
  upperBound REAL,
  active INTEGER NOT NULL DEFAULT 1,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(site, productFamily, analyte)
);

CREATE TABLE IF NOT EXISTS zone_rules (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  site TEXT NOT NULL DEFAULT '*',
  locationName TEXT NOT NULL,
  zone TEXT NOT NULL DEFAULT '',
  sampleVolume INTEGER NOT NULL DEFAULT 100,
  operator TEXT NOT NULL,
  bound REAL NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(site, locationName)
);

CREATE TABLE IF NOT EXISTS ufc_conversions (
  rawCount REAL PRIMARY KEY,
  ufc100 REAL,
  ufc250 REAL,
  ufc500 REAL
);

CREATE TABLE IF NOT EXISTS analyte_assignments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  formId INTEGER NOT NULL,
  analyte TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  UNIQUE(formId, analyte)
);
CREATE INDEX IF NOT EXISTS idx_assignments_formId ON analyte_assignments(formId);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertSamples(samples []internal.Sample) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO samples (sampleNumber, formId, site, productFamily, productType, ajDlc, measurementsJson, verdict)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(sampleNumber) DO UPDATE SET
  formId=excluded.formId,
  site=excluded.site,
  productFamily=excluded.productFamily,
  productType=excluded.productType,
  ajDlc=excluded.ajDlc,
  measurementsJson=excluded.measurementsJson,
  verdict=excluded.verdict,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		measurementsJSON, _ := json.Marshal(s.Measurements)
		var verdict *string
		if s.Verdict != nil {
			verdict = internal.StringPtr(string(*s.Verdict))
		}
		if _, err := stmt.Exec(s.SampleNumber, s.FormID, s.Site, s.ProductFamily, s.ProductType, s.AjDlc, string(measurementsJSON), verdict); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListSamplesPage returns samples ordered by id, for the orchestrator's
// paginated scan. A short page signals end of data.
func (d *DB) ListSamplesPage(offset, limit int) ([]internal.Sample, error) {
	rows, err := d.conn.Query(`
SELECT id, sampleNumber, formId, site, productFamily, productType, ajDlc, measurementsJson, verdict
FROM samples ORDER BY id ASC LIMIT ? OFFSET ?
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

func (d *DB) GetSampleByNumber(number string) (*internal.Sample, error) {
	row := d.conn.QueryRow(`
SELECT id, sampleNumber, formId, site, productFamily, productType, ajDlc, measurementsJson, verdict
FROM samples WHERE sampleNumber = ?
`, number)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

func (d *DB) MustSampleByNumber(number string) (internal.Sample, error) {
	sample, err := d.GetSampleByNumber(number)
	if err != nil {
		return internal.Sample{}, err
	}
	if sample == nil {
		return internal.Sample{}, fmt.Errorf("sample not found: %s", number)
	}
	return *sample, nil
}

func (d *DB) UpdateSampleVerdict(sampleID int, verdict internal.Verdict) error {
	_, err := d.conn.Exec(`UPDATE samples SET verdict = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(verdict), sampleID)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSample(row scannable) (internal.Sample, error) {
	var s internal.Sample
	var measurementsJSON string
	var verdict sql.NullString
	if err := row.Scan(&s.ID, &s.SampleNumber, &s.FormID, &s.Site, &s.ProductFamily, &s.ProductType, &s.AjDlc, &measurementsJSON, &verdict); err != nil {
		return internal.Sample{}, err
	}
	_ = json.Unmarshal([]byte(measurementsJSON), &s.Measurements)
	if verdict.Valid {
		v := internal.Verdict(verdict.String)
		s.Verdict = &v
	}
	return s, nil
}

func (d *DB) UpsertThresholdRules(ruleRows []internal.ThresholdRule) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO rules (site, productFamily, analyte, operator, lowerBound, upperBound, active)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(site, productFamily, analyte) DO UPDATE SET
  operator=excluded.operator,
  lowerBound=excluded.lowerBound,
  upperBound=excluded.upperBound,
  active=excluded.active,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range ruleRows {
		if _, err := stmt.Exec(r.Site, r.ProductFamily, r.Analyte, r.Operator, r.LowerBound, r.UpperBound, boolToInt(r.Active)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListThresholdRules() ([]internal.ThresholdRule, error) {
	rows, err := d.conn.Query(`
SELECT id, site, productFamily, analyte, operator, lowerBound, upperBound, active
FROM rules ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ThresholdRule
	for rows.Next() {
		var r internal.ThresholdRule
		var active int
		if err := rows.Scan(&r.ID, &r.Site, &r.ProductFamily, &r.Analyte, &r.Operator, &r.LowerBound, &r.UpperBound, &active); err != nil {
			return nil, err
		}
		r.Active = active != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) UpsertZoneRules(zoneRows []internal.EnvironmentalZoneRule) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO zone_rules (site, locationName, zone, sampleVolume, operator, bound, active)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(site, locationName) DO UPDATE SET
  zone=excluded.zone,
  sampleVolume=excluded.sampleVolume,
  operator=excluded.operator,
  bound=excluded.bound,
  active=excluded.active,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, z := range zoneRows {
		if _, err := stmt.Exec(z.Site, z.LocationName, z.Zone, z.SampleVolume, z.Operator, z.Bound, boolToInt(z.Active)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListZoneRules() ([]internal.EnvironmentalZoneRule, error) {
	rows, err := d.conn.Query(`
SELECT id, site, locationName, zone, sampleVolume, operator, bound, active
FROM zone_rules ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EnvironmentalZoneRule
	for rows.Next() {
		var z internal.EnvironmentalZoneRule
		var active int
		if err := rows.Scan(&z.ID, &z.Site, &z.LocationName, &z.Zone, &z.SampleVolume, &z.Operator, &z.Bound, &active); err != nil {
			return nil, err
		}
		z.Active = active != 0
		out = append(out, z)
	}
	return out, rows.Err()
}

func (d *DB) UpsertConversions(conversionRows []internal.UfcConversionRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO ufc_conversions (rawCount, ufc100, ufc250, ufc500)
VALUES (?, ?, ?, ?)
ON CONFLICT(rawCount) DO UPDATE SET
  ufc100=excluded.ufc100,
  ufc250=excluded.ufc250,
  ufc500=excluded.ufc500
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range conversionRows {
		if _, err := stmt.Exec(c.RawCount, c.Ufc100, c.Ufc250, c.Ufc500); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListConversions() ([]internal.UfcConversionRow, error) {
	rows, err := d.conn.Query(`SELECT rawCount, ufc100, ufc250, ufc500 FROM ufc_conversions ORDER BY rawCount ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.UfcConversionRow
	for rows.Next() {
		var c internal.UfcConversionRow
		if err := rows.Scan(&c.RawCount, &c.Ufc100, &c.Ufc250, &c.Ufc500); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) UpsertAssignments(assignmentRows []internal.AnalyteAssignment) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO analyte_assignments (formId, analyte, status)
VALUES (?, ?, ?)
ON CONFLICT(formId, analyte) DO UPDATE SET status=excluded.status
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range assignmentRows {
		status := a.Status
		if status == "" {
			status = internal.AssignmentPending
		}
		if _, err := stmt.Exec(a.FormID, a.Analyte, string(status)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListAssignments() ([]internal.AnalyteAssignment, error) {
	rows, err := d.conn.Query(`SELECT id, formId, analyte, status FROM analyte_assignments ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.AnalyteAssignment
	for rows.Next() {
		var a internal.AnalyteAssignment
		var status string
		if err := rows.Scan(&a.ID, &a.FormID, &a.Analyte, &status); err != nil {
			return nil, err
		}
		a.Status = internal.AssignmentState(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

// AssignmentsByForm groups the assignment rows by originating form.
func (d *DB) AssignmentsByForm() (map[int][]internal.AnalyteAssignment, error) {
	assignments, err := d.ListAssignments()
	if err != nil {
		return nil, err
	}
	out := map[int][]internal.AnalyteAssignment{}
	for _, a := range assignments {
		out[a.FormID] = append(out[a.FormID], a)
	}
	return out, nil
}

// LoadSnapshot reads all rule collections plus the conversion table into one
// immutable snapshot for a resolution or batch pass.
func (d *DB) LoadSnapshot() (*rules.Snapshot, error) {
	thresholdRules, err := d.ListThresholdRules()
	if err != nil {
		return nil, err
	}
	zoneRules, err := d.ListZoneRules()
	if err != nil {
		return nil, err
	}
	conversions, err := d.ListConversions()
	if err != nil {
		return nil, err
	}
	return rules.NewSnapshot(thresholdRules, zoneRules, conversions), nil
}

func (d *DB) InsertRun(traceID string, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, timingsJson, countsJson) VALUES (?, ?, ?)`, traceID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/dentalscan/internal/interpret"
)

// ErrEmptyStore is returned by Load when no catalog has been saved yet.
var ErrEmptyStore = errors.New("catalog store is empty")

// SQLiteStore keeps an interpreter config in SQLite so operators can edit the
// condition catalog without a rebuild. It is read once at startup.
type SQLiteStore struct {
	db *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conditions (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS condition_keywords (
	condition_position INTEGER NOT NULL,
	position           INTEGER NOT NULL,
	keyword            TEXT NOT NULL,
	PRIMARY KEY (condition_position, position)
);

CREATE TABLE IF NOT EXISTS header_phrases (
	section  TEXT NOT NULL,
	rule     INTEGER NOT NULL,
	position INTEGER NOT NULL,
	phrase   TEXT NOT NULL,
	PRIMARY KEY (rule, position)
);

CREATE TABLE IF NOT EXISTS severity_keywords (
	level    TEXT NOT NULL,
	position INTEGER NOT NULL,
	keyword  TEXT NOT NULL,
	PRIMARY KEY (level, position)
);

CREATE TABLE IF NOT EXISTS marker_positions (
	slot     INTEGER PRIMARY KEY,
	top_pct  TEXT NOT NULL,
	left_pct TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const (
	levelHigh     = "high"
	levelModerate = "moderate"

	settingModerateAbove      = "moderate_confidence_above"
	settingFallbackCondition  = "fallback_condition"
	settingFallbackConfidence = "fallback_confidence"
	settingFallbackSeverity   = "fallback_severity"
	settingFallbackColor      = "fallback_color"
)

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type conditionRow struct {
	Position int    `db:"position"`
	Name     string `db:"name"`
}

type keywordRow struct {
	ConditionPosition int    `db:"condition_position"`
	Keyword           string `db:"keyword"`
}

type headerRow struct {
	Section string `db:"section"`
	Rule    int    `db:"rule"`
	Phrase  string `db:"phrase"`
}

type severityRow struct {
	Level   string `db:"level"`
	Keyword string `db:"keyword"`
}

type positionRow struct {
	Top  string `db:"top_pct"`
	Left string `db:"left_pct"`
}

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Save replaces the stored catalog with cfg.
func (s *SQLiteStore) Save(ctx context.Context, cfg interpret.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"conditions", "condition_keywords", "header_phrases", "severity_keywords", "marker_positions", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, c := range cfg.Catalog {
		if _, err := tx.ExecContext(ctx, `INSERT INTO conditions (position, name) VALUES (?, ?)`, i, c.Name); err != nil {
			return fmt.Errorf("insert condition %s: %w", c.Name, err)
		}
		for j, kw := range c.Keywords {
			if _, err := tx.ExecContext(ctx, `INSERT INTO condition_keywords (condition_position, position, keyword) VALUES (?, ?, ?)`, i, j, kw); err != nil {
				return fmt.Errorf("insert keyword %s/%s: %w", c.Name, kw, err)
			}
		}
	}
	for i, h := range cfg.Headers {
		for j, phrase := range h.Phrases {
			if _, err := tx.ExecContext(ctx, `INSERT INTO header_phrases (section, rule, position, phrase) VALUES (?, ?, ?, ?)`, string(h.Section), i, j, phrase); err != nil {
				return fmt.Errorf("insert header phrase %q: %w", phrase, err)
			}
		}
	}
	for level, kws := range map[string][]string{levelHigh: cfg.HighSeverityKeywords, levelModerate: cfg.ModerateKeywords} {
		for i, kw := range kws {
			if _, err := tx.ExecContext(ctx, `INSERT INTO severity_keywords (level, position, keyword) VALUES (?, ?, ?)`, level, i, kw); err != nil {
				return fmt.Errorf("insert severity keyword %q: %w", kw, err)
			}
		}
	}
	for i, p := range cfg.Positions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO marker_positions (slot, top_pct, left_pct) VALUES (?, ?, ?)`, i, p.Top, p.Left); err != nil {
			return fmt.Errorf("insert position %d: %w", i, err)
		}
	}
	settings := map[string]string{
		settingModerateAbove:      strconv.Itoa(cfg.ModerateConfidenceAbove),
		settingFallbackCondition:  cfg.Fallback.Condition,
		settingFallbackConfidence: strconv.Itoa(cfg.Fallback.Confidence),
		settingFallbackSeverity:   string(cfg.Fallback.Severity),
		settingFallbackColor:      string(cfg.Fallback.Color),
	}
	for k, v := range settings {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Load reads the stored catalog. Every list table is taken as saved, empty
// included; only scalar settings missing from the database keep their
// DefaultConfig value.
func (s *SQLiteStore) Load(ctx context.Context) (interpret.Config, error) {
	var conds []conditionRow
	if err := s.db.SelectContext(ctx, &conds, `SELECT position, name FROM conditions ORDER BY position`); err != nil {
		return interpret.Config{}, fmt.Errorf("load conditions: %w", err)
	}
	if len(conds) == 0 {
		return interpret.Config{}, ErrEmptyStore
	}
	var kws []keywordRow
	if err := s.db.SelectContext(ctx, &kws, `SELECT condition_position, keyword FROM condition_keywords ORDER BY condition_position, position`); err != nil {
		return interpret.Config{}, fmt.Errorf("load keywords: %w", err)
	}
	byCondition := map[int][]string{}
	for _, k := range kws {
		byCondition[k.ConditionPosition] = append(byCondition[k.ConditionPosition], k.Keyword)
	}

	cfg := interpret.DefaultConfig()
	cfg.Catalog = make([]interpret.Condition, 0, len(conds))
	for _, c := range conds {
		cfg.Catalog = append(cfg.Catalog, interpret.Condition{Name: c.Name, Keywords: byCondition[c.Position]})
	}

	var headers []headerRow
	if err := s.db.SelectContext(ctx, &headers, `SELECT section, rule, phrase FROM header_phrases ORDER BY rule, position`); err != nil {
		return interpret.Config{}, fmt.Errorf("load headers: %w", err)
	}
	cfg.Headers = []interpret.HeaderCue{}
	lastRule := -1
	for _, h := range headers {
		if h.Rule != lastRule {
			cfg.Headers = append(cfg.Headers, interpret.HeaderCue{Section: interpret.SectionKind(h.Section)})
			lastRule = h.Rule
		}
		cur := &cfg.Headers[len(cfg.Headers)-1]
		cur.Phrases = append(cur.Phrases, h.Phrase)
	}

	var sev []severityRow
	if err := s.db.SelectContext(ctx, &sev, `SELECT level, keyword FROM severity_keywords ORDER BY level, position`); err != nil {
		return interpret.Config{}, fmt.Errorf("load severity keywords: %w", err)
	}
	cfg.HighSeverityKeywords, cfg.ModerateKeywords = []string{}, []string{}
	for _, r := range sev {
		switch r.Level {
		case levelHigh:
			cfg.HighSeverityKeywords = append(cfg.HighSeverityKeywords, r.Keyword)
		case levelModerate:
			cfg.ModerateKeywords = append(cfg.ModerateKeywords, r.Keyword)
		}
	}

	var positions []positionRow
	if err := s.db.SelectContext(ctx, &positions, `SELECT top_pct, left_pct FROM marker_positions ORDER BY slot`); err != nil {
		return interpret.Config{}, fmt.Errorf("load positions: %w", err)
	}
	cfg.Positions = make([]interpret.Position, 0, len(positions))
	for _, p := range positions {
		cfg.Positions = append(cfg.Positions, interpret.Position{Top: p.Top, Left: p.Left})
	}

	var settings []settingRow
	if err := s.db.SelectContext(ctx, &settings, `SELECT key, value FROM settings`); err != nil {
		return interpret.Config{}, fmt.Errorf("load settings: %w", err)
	}
	if err := applySettings(&cfg, settings); err != nil {
		return interpret.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return interpret.Config{}, fmt.Errorf("stored catalog: %w", err)
	}
	return cfg, nil
}

// Empty reports whether nothing has been saved yet.
func (s *SQLiteStore) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM conditions`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("count conditions: %w", err)
	}
	return n == 0, nil
}

func applySettings(cfg *interpret.Config, settings []settingRow) error {
	for _, st := range settings {
		switch st.Key {
		case settingModerateAbove:
			n, err := strconv.Atoi(st.Value)
			if err != nil {
				return fmt.Errorf("setting %s: %w", st.Key, err)
			}
			cfg.ModerateConfidenceAbove = n
		case settingFallbackCondition:
			cfg.Fallback.Condition = st.Value
		case settingFallbackConfidence:
			n, err := strconv.Atoi(st.Value)
			if err != nil {
				return fmt.Errorf("setting %s: %w", st.Key, err)
			}
			cfg.Fallback.Confidence = n
		case settingFallbackSeverity:
			cfg.Fallback.Severity = interpret.Severity(st.Value)
		case settingFallbackColor:
			cfg.Fallback.Color = interpret.ColorToken(st.Value)
		}
	}
	return nil
}

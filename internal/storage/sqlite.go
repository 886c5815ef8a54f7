package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"estate_bot/internal/model"
	"estate_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const listingColumns = `id, title, price, price_value, price_per_m2, district, rooms, area, floor, category, link, pub_date, created_at`

// UpsertListing creates the listing if its id is absent. An existing row is
// never modified: first-seen data wins, and the no-op is reported, not an
// error.
func (s *SQLite) UpsertListing(ctx context.Context, l *model.Listing) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Title, l.Price,
		nullInt(l.PriceValue), nullFloat(l.PricePerM2), nullStr(l.District),
		nullFloat(l.Rooms), nullFloat(l.Area), nullStr(l.Floor),
		l.Category, l.Link, l.PubDate.UTC().Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return false, fmt.Errorf("insert listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		l.CreatedAt, _ = time.Parse(timeLayout, now.Format(timeLayout))
	}
	return n > 0, nil
}

// QueryListings returns listings matching the filter, newest first.
func (s *SQLite) QueryListings(ctx context.Context, f ListingFilter) ([]model.Listing, error) {
	where, args := listingWhere(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings`+where+` ORDER BY created_at DESC, id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// FindLatestListing returns the single newest listing matching the filter,
// or nil when nothing matches.
func (s *SQLite) FindLatestListing(ctx context.Context, f ListingFilter) (*model.Listing, error) {
	where, args := listingWhere(f)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings`+where+` ORDER BY created_at DESC, id LIMIT 1`, args...,
	)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CountListings returns the number of listings matching the filter.
func (s *SQLite) CountListings(ctx context.Context, f ListingFilter) (int, error) {
	where, args := listingWhere(f)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}

// EnsureUser creates the user on first interaction; repeat calls are no-ops.
func (s *SQLite) EnsureUser(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (chat_id, created_at) VALUES (?, ?)`,
		chatID, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// GetUser returns a user by chat id, or ErrNotFound.
func (s *SQLite) GetUser(ctx context.Context, chatID string) (*model.User, error) {
	var u model.User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, created_at FROM users WHERE chat_id = ?`, chatID,
	).Scan(&u.ChatID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}

const subscriptionColumns = `id, user_chat_id, category, district, price_min, price_max, rooms_min, rooms_max, area_min, area_max, created_at`

// CreateSubscription inserts a subscription and populates its ID and CreatedAt.
func (s *SQLite) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	if sub.Category == "" {
		sub.Category = model.CategoryFlats
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_chat_id, category, district, price_min, price_max, rooms_min, rooms_max, area_min, area_max, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.UserChatID, sub.Category, nullStr(sub.District),
		nullInt(sub.PriceMin), nullInt(sub.PriceMax),
		nullFloat(sub.RoomsMin), nullFloat(sub.RoomsMax),
		nullFloat(sub.AreaMin), nullFloat(sub.AreaMax), now,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	sub.ID = id
	sub.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListSubscriptions returns every subscription across all users.
func (s *SQLite) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// ListUserSubscriptions returns all subscriptions owned by the given chat.
func (s *SQLite) ListUserSubscriptions(ctx context.Context, chatID string) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_chat_id = ? ORDER BY id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// GetUserSubscription returns one subscription, scoped to its owner.
// A subscription owned by another chat is reported as ErrNotFound.
func (s *SQLite) GetUserSubscription(ctx context.Context, chatID string, id int64) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ? AND user_chat_id = ?`, id, chatID,
	)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubscription removes a subscription, verifying ownership.
// Deleting another user's subscription fails with ErrNotFound.
func (s *SQLite) DeleteSubscription(ctx context.Context, chatID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE id = ? AND user_chat_id = ?`, id, chatID,
	)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AlreadyNotified reports whether the (user, listing) pair is in the ledger.
func (s *SQLite) AlreadyNotified(ctx context.Context, chatID, listingID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sent_listings WHERE user_chat_id = ? AND listing_id = ?`,
		chatID, listingID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check sent: %w", err)
	}
	return count > 0, nil
}

// RecordNotified inserts a delivery record. A duplicate pair fails with
// ErrAlreadyNotified; the ledger never silently overwrites.
func (s *SQLite) RecordNotified(ctx context.Context, chatID, listingID string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_listings (user_chat_id, listing_id, sent_at) VALUES (?, ?, ?)`,
		chatID, listingID, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyNotified
	}
	return nil
}

// AppendFailure inserts a failure record and populates its ID and CreatedAt.
func (s *SQLite) AppendFailure(ctx context.Context, r *model.FailureRecord) error {
	now := time.Now().UTC().Format(timeLayout)

	var contextJSON string
	if len(r.Context) > 0 {
		b, err := json.Marshal(r.Context)
		if err != nil {
			return fmt.Errorf("marshal failure context: %w", err)
		}
		contextJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO failed_listings (kind, listing_id, title, link, error, raw_data, context, resolved, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		string(r.Kind), r.ListingID, r.Title, r.Link, r.Error, r.RawData, contextJSON, now,
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	r.Resolved = false
	r.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListFailures returns failure records matching the filter, newest first.
func (s *SQLite) ListFailures(ctx context.Context, f FailureFilter) ([]model.FailureRecord, error) {
	var conds []string
	var args []any
	if f.Kind != nil {
		conds = append(conds, "kind = ?")
		args = append(args, string(*f.Kind))
	}
	if f.Resolved != nil {
		conds = append(conds, "resolved = ?")
		args = append(args, boolToInt(*f.Resolved))
	}
	q := `SELECT id, kind, listing_id, title, link, error, raw_data, context, resolved, resolved_at, created_at FROM failed_listings`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.FailureRecord
	for rows.Next() {
		r, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ResolveFailure marks a failure record as resolved.
func (s *SQLite) ResolveFailure(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE failed_listings SET resolved = 1, resolved_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("resolve failure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FailureStats summarizes the failure sink contents.
func (s *SQLite) FailureStats(ctx context.Context) (*FailureStats, error) {
	stats := &FailureStats{ByKind: make(map[model.FailureKind]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_listings`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM failed_listings GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		stats.ByKind[model.FailureKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM failed_listings WHERE resolved = 0`,
	).Scan(&stats.Unresolved); err != nil {
		return nil, fmt.Errorf("count unresolved: %w", err)
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour).Format(timeLayout)
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM failed_listings WHERE created_at >= ?`, cutoff,
	).Scan(&stats.Last24h); err != nil {
		return nil, fmt.Errorf("count recent: %w", err)
	}

	return stats, nil
}

func listingWhere(f ListingFilter) (string, []any) {
	var conds []string
	var args []any

	if f.RequirePrice {
		conds = append(conds, "price_value IS NOT NULL")
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.District != nil {
		// Same normalization the matcher applies: labels compare
		// case-insensitively.
		conds = append(conds, "district = ? COLLATE NOCASE")
		args = append(args, *f.District)
	}
	if f.PriceMin != nil {
		conds = append(conds, "price_value >= ?")
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		conds = append(conds, "price_value <= ?")
		args = append(args, *f.PriceMax)
	}
	if f.RoomsMin != nil {
		conds = append(conds, "rooms >= ?")
		args = append(args, *f.RoomsMin)
	}
	if f.RoomsMax != nil {
		conds = append(conds, "rooms <= ?")
		args = append(args, *f.RoomsMax)
	}
	if f.AreaMin != nil {
		conds = append(conds, "area >= ?")
		args = append(args, *f.AreaMin)
	}
	if f.AreaMax != nil {
		conds = append(conds, "area <= ?")
		args = append(args, *f.AreaMax)
	}
	if f.CreatedWithin > 0 {
		cutoff := time.Now().UTC().Add(-f.CreatedWithin).Format(timeLayout)
		conds = append(conds, "created_at >= ?")
		args = append(args, cutoff)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type scannable interface {
	Scan(dest ...any) error
}

func scanListing(row scannable) (model.Listing, error) {
	var l model.Listing
	var priceValue sql.NullInt64
	var pricePerM2, rooms, area sql.NullFloat64
	var district, floor sql.NullString
	var pubDate, created string

	err := row.Scan(&l.ID, &l.Title, &l.Price, &priceValue, &pricePerM2,
		&district, &rooms, &area, &floor, &l.Category, &l.Link, &pubDate, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return l, err
		}
		return l, fmt.Errorf("scan listing: %w", err)
	}

	if priceValue.Valid {
		l.PriceValue = &priceValue.Int64
	}
	if pricePerM2.Valid {
		l.PricePerM2 = &pricePerM2.Float64
	}
	if district.Valid {
		l.District = &district.String
	}
	if rooms.Valid {
		l.Rooms = &rooms.Float64
	}
	if area.Valid {
		l.Area = &area.Float64
	}
	if floor.Valid {
		l.Floor = &floor.String
	}
	l.PubDate, _ = time.Parse(timeLayout, pubDate)
	l.CreatedAt, _ = time.Parse(timeLayout, created)
	return l, nil
}

func scanSubscription(row scannable) (model.Subscription, error) {
	var s model.Subscription
	var district sql.NullString
	var priceMin, priceMax sql.NullInt64
	var roomsMin, roomsMax, areaMin, areaMax sql.NullFloat64
	var created string

	err := row.Scan(&s.ID, &s.UserChatID, &s.Category, &district,
		&priceMin, &priceMax, &roomsMin, &roomsMax, &areaMin, &areaMax, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scan subscription: %w", err)
	}

	if district.Valid {
		s.District = &district.String
	}
	if priceMin.Valid {
		s.PriceMin = &priceMin.Int64
	}
	if priceMax.Valid {
		s.PriceMax = &priceMax.Int64
	}
	if roomsMin.Valid {
		s.RoomsMin = &roomsMin.Float64
	}
	if roomsMax.Valid {
		s.RoomsMax = &roomsMax.Float64
	}
	if areaMin.Valid {
		s.AreaMin = &areaMin.Float64
	}
	if areaMax.Valid {
		s.AreaMax = &areaMax.Float64
	}
	s.CreatedAt, _ = time.Parse(timeLayout, created)
	return s, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func scanFailure(row scannable) (model.FailureRecord, error) {
	var r model.FailureRecord
	var kind, created string
	var contextJSON string
	var resolved int
	var resolvedAt sql.NullString

	err := row.Scan(&r.ID, &kind, &r.ListingID, &r.Title, &r.Link, &r.Error,
		&r.RawData, &contextJSON, &resolved, &resolvedAt, &created)
	if err != nil {
		return r, fmt.Errorf("scan failure: %w", err)
	}

	r.Kind = model.FailureKind(kind)
	r.Resolved = resolved == 1
	if contextJSON != "" {
		_ = json.Unmarshal([]byte(contextJSON), &r.Context)
	}
	if resolvedAt.Valid {
		t, _ := time.Parse(timeLayout, resolvedAt.String)
		r.ResolvedAt = &t
	}
	r.CreatedAt, _ = time.Parse(timeLayout, created)
	return r, nil
}

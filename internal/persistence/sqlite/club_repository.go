package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// ClubRepository implements persistence.ClubRepository using SQLite
type ClubRepository struct {
	repositoryBase
}

const clubColumns = `id, council_id, name, club_day, meeting_interval, meeting_time, created_at, updated_at`

// CreateClub inserts a club. A zero ID is assigned by the database.
func (r *ClubRepository) CreateClub(ctx context.Context, club persistence.Club) (persistence.Club, error) {
	if strings.TrimSpace(club.Name) == "" {
		return persistence.Club{}, fmt.Errorf("%w: club name is required", persistence.ErrConstraintViolation)
	}

	now := r.timestamp()
	if club.CreatedAt.IsZero() {
		club.CreatedAt = now
	}
	if club.UpdatedAt.IsZero() {
		club.UpdatedAt = club.CreatedAt
	}

	var id sql.NullInt64
	if club.ID != 0 {
		id = sql.NullInt64{Int64: club.ID, Valid: true}
	}

	query := `
		INSERT INTO clubs (` + clubColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var result sql.Result
	err := r.retry.WithRetry(ctx, func() error {
		var execErr error
		result, execErr = r.helper.Exec(ctx, query,
			id,
			nullableInt64(club.CouncilID),
			club.Name,
			club.MeetingDay,
			club.Interval,
			club.MeetingTime,
			formatTimestamp(club.CreatedAt),
			formatTimestamp(club.UpdatedAt),
		)
		return execErr
	})
	if err != nil {
		return persistence.Club{}, err
	}

	if club.ID == 0 {
		club.ID, err = result.LastInsertId()
		if err != nil {
			return persistence.Club{}, fmt.Errorf("failed to get club id: %w", err)
		}
	}
	return club, nil
}

// GetClub retrieves a club by ID
func (r *ClubRepository) GetClub(ctx context.Context, id int64) (persistence.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = ?`

	club, err := scanClub(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Club{}, persistence.ErrNotFound
		}
		return persistence.Club{}, r.mapper.MapError(err)
	}
	return club, nil
}

// ListClubs returns every club ordered by ID.
func (r *ClubRepository) ListClubs(ctx context.Context) ([]persistence.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs ORDER BY id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var clubs []persistence.Club
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, club)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return clubs, nil
}

// AddMembership adds a user to a club roster.
func (r *ClubRepository) AddMembership(ctx context.Context, membership persistence.Membership) error {
	if membership.JoinDate.IsZero() {
		membership.JoinDate = r.timestamp()
	}

	query := `INSERT INTO club_memberships (user_id, club_id, join_date) VALUES (?, ?, ?)`

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.helper.Exec(ctx, query, membership.UserID, membership.ClubID, formatDate(membership.JoinDate))
		return err
	})
}

// ListMemberships returns the club roster ordered by join date then user.
func (r *ClubRepository) ListMemberships(ctx context.Context, clubID int64) ([]persistence.Membership, error) {
	query := `
		SELECT user_id, club_id, join_date
		FROM club_memberships
		WHERE club_id = ?
		ORDER BY join_date ASC, user_id ASC
	`

	rows, err := r.helper.Query(ctx, query, clubID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var memberships []persistence.Membership
	for rows.Next() {
		var (
			membership persistence.Membership
			joinDate   string
		)
		if err := rows.Scan(&membership.UserID, &membership.ClubID, &joinDate); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		membership.JoinDate, err = parseDate(joinDate)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return memberships, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClub(row rowScanner) (persistence.Club, error) {
	var (
		club                 persistence.Club
		councilID            sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(
		&club.ID,
		&councilID,
		&club.Name,
		&club.MeetingDay,
		&club.Interval,
		&club.MeetingTime,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Club{}, err
	}

	club.CouncilID = int64Pointer(councilID)
	if club.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Club{}, err
	}
	if club.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Club{}, err
	}
	return club, nil
}

// Package mysql provides the MySQL implementation of stores.DocumentStore.
// It also serves MySQL-protocol compatibles such as OceanBase.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

// Store implements stores.DocumentStore over MySQL.
type Store struct {
	db *sql.DB
}

// Config contains MySQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// New opens a MySQL document store.
func New(cfg *Config) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLStore: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLStore: %w", err)
	}

	s := &Store{db: db}
	if err := s.initTables(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS relationships (
			user_id VARCHAR(255) PRIMARY KEY,
			doc JSON NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id VARCHAR(255) PRIMARY KEY,
			doc JSON NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS story_threads (
			thread_id BIGINT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			doc JSON NOT NULL,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_threads_user_status (user_id, status)
		)`,
		`CREATE TABLE IF NOT EXISTS emotion_annotations (
			id BIGINT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			emotion VARCHAR(32) NOT NULL,
			doc JSON NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_annotations_user_emotion (user_id, emotion)
		)`,
		`CREATE TABLE IF NOT EXISTS importance_scores (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			score DOUBLE NOT NULL,
			doc JSON NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_importance_user (user_id, created_at)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}
	return nil
}

// GetRelationship returns the relationship document for the user.
func (s *Store) GetRelationship(ctx context.Context, userID string) (*core.UserRelationship, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM relationships WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetRelationship: %w", err)
	}

	var doc core.UserRelationship
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("GetRelationship: decode: %w", err)
	}
	return &doc, nil
}

// PutRelationship upserts the relationship document.
func (s *Store) PutRelationship(ctx context.Context, doc *core.UserRelationship) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("PutRelationship: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO relationships (user_id, doc, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE doc = VALUES(doc), updated_at = VALUES(updated_at)`,
		doc.UserID, raw, time.Now())
	if err != nil {
		return fmt.Errorf("PutRelationship: %w", err)
	}
	return nil
}

// GetProfile returns the consolidated profile for the user.
func (s *Store) GetProfile(ctx context.Context, userID string) (*core.UserProfile, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM profiles WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}

	var profile core.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("GetProfile: decode: %w", err)
	}
	return &profile, nil
}

// PutProfile upserts the profile.
func (s *Store) PutProfile(ctx context.Context, profile *core.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("PutProfile: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, doc, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE doc = VALUES(doc), updated_at = VALUES(updated_at)`,
		profile.UserID, raw, time.Now())
	if err != nil {
		return fmt.Errorf("PutProfile: %w", err)
	}
	return nil
}

// ListActiveThreads returns the user's non-resolved story threads.
func (s *Store) ListActiveThreads(ctx context.Context, userID string, limit int) ([]core.StoryThread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM story_threads
		WHERE user_id = ? AND status != ?
		ORDER BY last_updated DESC LIMIT ?`,
		userID, string(core.ThreadResolved), limit)
	if err != nil {
		return nil, fmt.Errorf("ListActiveThreads: %w", err)
	}
	defer rows.Close()

	var threads []core.StoryThread
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("ListActiveThreads: scan: %w", err)
		}
		var t core.StoryThread
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("ListActiveThreads: decode: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// GetThread returns one story thread by ID.
func (s *Store) GetThread(ctx context.Context, threadID int64) (*core.StoryThread, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM story_threads WHERE thread_id = ?`, threadID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetThread: %w", err)
	}

	var t core.StoryThread
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("GetThread: decode: %w", err)
	}
	return &t, nil
}

// UpsertThread inserts or updates a story thread.
func (s *Store) UpsertThread(ctx context.Context, thread *core.StoryThread) error {
	raw, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("UpsertThread: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO story_threads (thread_id, user_id, status, doc, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status), doc = VALUES(doc), last_updated = VALUES(last_updated)`,
		thread.ThreadID, thread.UserID, string(thread.Status), raw, thread.LastUpdated)
	if err != nil {
		return fmt.Errorf("UpsertThread: %w", err)
	}
	return nil
}

// InsertAnnotation stores one immutable emotion annotation.
func (s *Store) InsertAnnotation(ctx context.Context, a *core.EmotionAnnotation) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("InsertAnnotation: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO emotion_annotations (id, user_id, emotion, doc, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.UserEmotion, raw, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertAnnotation: %w", err)
	}
	return nil
}

// ListAnnotations returns the user's annotations created at or after since.
func (s *Store) ListAnnotations(ctx context.Context, userID string, since time.Time, limit int) ([]core.EmotionAnnotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM emotion_annotations
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListAnnotations: %w", err)
	}
	defer rows.Close()
	return scanAnnotations(rows)
}

// ListAnnotationsByEmotion returns the user's annotations carrying the given
// emotion label.
func (s *Store) ListAnnotationsByEmotion(ctx context.Context, userID, emotion string, limit int) ([]core.EmotionAnnotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM emotion_annotations
		WHERE user_id = ? AND emotion = ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, emotion, limit)
	if err != nil {
		return nil, fmt.Errorf("ListAnnotationsByEmotion: %w", err)
	}
	defer rows.Close()
	return scanAnnotations(rows)
}

func scanAnnotations(rows *sql.Rows) ([]core.EmotionAnnotation, error) {
	var out []core.EmotionAnnotation
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanAnnotations: %w", err)
		}
		var a core.EmotionAnnotation
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("scanAnnotations: decode: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertImportance stores one importance score.
func (s *Store) InsertImportance(ctx context.Context, score *core.ImportanceScore) error {
	raw, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("InsertImportance: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO importance_scores (user_id, score, doc, created_at)
		VALUES (?, ?, ?, ?)`,
		score.UserID, score.Score, raw, score.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertImportance: %w", err)
	}
	return nil
}

// ListImportance returns the user's importance scores created at or after
// since.
func (s *Store) ListImportance(ctx context.Context, userID string, since time.Time, limit int) ([]core.ImportanceScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM importance_scores
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListImportance: %w", err)
	}
	defer rows.Close()

	var out []core.ImportanceScore
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("ListImportance: scan: %w", err)
		}
		var sc core.ImportanceScore
		if err := json.Unmarshal(raw, &sc); err != nil {
			return nil, fmt.Errorf("ListImportance: decode: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListUserIDs returns every user ID with a relationship document.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM relationships`)
	if err != nil {
		return nil, fmt.Errorf("ListUserIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListUserIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

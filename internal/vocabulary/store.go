package vocabulary

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store 词汇库接口。流水线每次扫描前通过 List 取一份只读快照；
// Promote 是唯一暴露给交互层的分类变更入口。
type Store interface {
	List(ctx context.Context) ([]*Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Add(ctx context.Context, entry *Entry) error
	Promote(ctx context.Context, id string, category Category) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// SQLiteStore SQLite 实现
type SQLiteStore struct {
	db *sql.DB
}

// Open 打开（必要时创建）词汇库
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		word        TEXT NOT NULL,
		translation TEXT NOT NULL,
		inflections TEXT NOT NULL DEFAULT '[]',
		category    TEXT NOT NULL,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_entries_word ON entries(word);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init vocabulary schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// List 返回全部词条快照，按加入顺序
func (s *SQLiteStore) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word, translation, inflections, category FROM entries ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var inflections string
		if err := rows.Scan(&entry.ID, &entry.Word, &entry.Translation, &inflections, &entry.Category); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(inflections), &entry.Inflections); err != nil {
			// 损坏的词形数据不应让整个快照失败
			entry.Inflections = nil
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Get 按 ID 查找词条
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, word, translation, inflections, category FROM entries WHERE id = ?`, id)

	var entry Entry
	var inflections string
	if err := row.Scan(&entry.ID, &entry.Word, &entry.Translation, &inflections, &entry.Category); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("entry %s not found", id)
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if err := json.Unmarshal([]byte(inflections), &entry.Inflections); err != nil {
		entry.Inflections = nil
	}
	return &entry, nil
}

// Add 添加词条，ID 为空时自动生成
func (s *SQLiteStore) Add(ctx context.Context, entry *Entry) error {
	if entry.Word == "" {
		return fmt.Errorf("entry word must not be empty")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Category == "" {
		entry.Category = CategoryWantToLearn
	}
	if !ValidCategory(entry.Category) {
		return fmt.Errorf("invalid category: %s", entry.Category)
	}

	inflections, err := json.Marshal(entry.Inflections)
	if err != nil {
		return fmt.Errorf("failed to encode inflections: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id, word, translation, inflections, category) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Word, entry.Translation, string(inflections), string(entry.Category))
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Promote 变更词条分类
func (s *SQLiteStore) Promote(ctx context.Context, id string, category Category) error {
	if !ValidCategory(category) {
		return fmt.Errorf("invalid category: %s", category)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE entries SET category = ? WHERE id = ?`, string(category), id)
	if err != nil {
		return fmt.Errorf("failed to promote entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("entry %s not found", id)
	}
	return nil
}

// Delete 删除词条
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLStore keeps each collection in a MySQL table of JSON documents keyed by id.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureCollections creates the backing tables if they don't exist.
func (s *SQLStore) EnsureCollections(ctx context.Context, collections ...string) error {
	for _, collection := range collections {
		if !identifierPattern.MatchString(collection) {
			return fmt.Errorf("invalid collection name %q", collection)
		}
		query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGINT NOT NULL PRIMARY KEY, doc JSON NOT NULL, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP)", collection)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", collection, err)
		}
	}
	return nil
}

func (s *SQLStore) FindByKey(ctx context.Context, collection string, key int64, projection []string) (ports.Document, error) {
	if err := checkIdentifier(collection); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", collection)

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %d: %w", collection, key, err)
	}

	doc, err := decodeRow(raw, key)
	if err != nil {
		return nil, err
	}
	return project(doc, projection), nil
}

// UpsertByKey merges patch into the stored document inside a transaction,
// locking the row so concurrent patches to one key do not drop attributes.
func (s *SQLStore) UpsertByKey(ctx context.Context, collection string, key int64, patch ports.Document) error {
	if err := checkIdentifier(collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.WithError(rbErr).WithField("collection", collection).Warn("Rollback failed")
		}
	}()

	doc := ports.Document{}
	var raw []byte
	selectQuery := fmt.Sprintf("SELECT doc FROM %s WHERE id = ? FOR UPDATE", collection)
	switch err := tx.QueryRowContext(ctx, selectQuery, key).Scan(&raw); err {
	case nil:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode %s %d: %w", collection, key, err)
		}
	case sql.ErrNoRows:
	default:
		return fmt.Errorf("failed to lock %s %d: %w", collection, key, err)
	}

	for k, v := range patch {
		doc[k] = v
	}
	doc["id"] = key

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s %d: %w", collection, key, err)
	}

	upsertQuery := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (?, ?) ON DUPLICATE KEY UPDATE doc = VALUES(doc)", collection)
	if _, err := tx.ExecContext(ctx, upsertQuery, key, string(encoded)); err != nil {
		return fmt.Errorf("failed to upsert %s %d: %w", collection, key, err)
	}
	return tx.Commit()
}

func (s *SQLStore) Query(ctx context.Context, collection string, filter ports.Filter, opts ports.QueryOptions) ([]ports.Document, error) {
	if err := checkIdentifier(collection); err != nil {
		return nil, err
	}
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	if opts.MaxTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.MaxTime)
		defer cancel()
	}

	hint := ""
	if opts.MaxTime > 0 {
		hint = fmt.Sprintf("/*+ MAX_EXECUTION_TIME(%d) */ ", opts.MaxTime.Milliseconds())
	}
	query := fmt.Sprintf("SELECT %sid, doc FROM %s%s ORDER BY id", hint, collection, where)
	switch {
	case opts.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Skip)
	case opts.Skip > 0:
		query += " LIMIT 18446744073709551615 OFFSET ?"
		args = append(args, opts.Skip)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []ports.Document
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		doc, err := decodeRow(raw, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, project(doc, opts.Projection))
	}
	return docs, rows.Err()
}

func (s *SQLStore) Count(ctx context.Context, collection string, filter ports.Filter) (int64, error) {
	if err := checkIdentifier(collection); err != nil {
		return 0, err
	}
	where, args, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", collection, where)

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

func (s *SQLStore) DeleteByKey(ctx context.Context, collection string, key int64) (bool, error) {
	if err := checkIdentifier(collection); err != nil {
		return false, err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", collection)
	res, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s %d: %w", collection, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func decodeRow(raw []byte, id int64) (ports.Document, error) {
	var doc ports.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %d: %w", id, err)
	}
	if doc == nil {
		doc = ports.Document{}
	}
	doc["id"] = float64(id)
	return doc, nil
}

func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// buildWhere renders a filter as a WHERE clause over JSON attributes.
func buildWhere(filter ports.Filter) (string, []interface{}, error) {
	if err := validateFilter(filter); err != nil {
		return "", nil, err
	}
	if len(filter) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filter))
	var args []interface{}
	for _, cond := range filter {
		if err := checkIdentifier(cond.Field); err != nil {
			return "", nil, err
		}
		column := fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(doc, '$.%s'))", cond.Field)
		if cond.Field == "id" {
			column = "id"
		}

		switch cond.Op {
		case ports.OpEq:
			clauses = append(clauses, column+" = ?")
			args = append(args, scalarString(cond.Values[0]))
		case ports.OpIn:
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cond.Values)), ", ")
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, placeholders))
			for _, v := range cond.Values {
				args = append(args, scalarString(v))
			}
		case ports.OpPrefix:
			alternatives := make([]string, len(cond.Values))
			for i, v := range cond.Values {
				alternatives[i] = fmt.Sprintf("LOWER(%s) LIKE ?", column)
				args = append(args, escapeLike(strings.ToLower(scalarString(v)))+"%")
			}
			clauses = append(clauses, "("+strings.Join(alternatives, " OR ")+")")
		case ports.OpContains:
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE ?", column))
			args = append(args, "%"+escapeLike(strings.ToLower(scalarString(cond.Values[0])))+"%")
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/voice"
)

// Alias is a stored extra phrase for a voice command.
type Alias struct {
	ID         string
	Phrase     string
	Target     string
	PluginName string
	ActionName string
	Enabled    bool
	CreatedAt  time.Time
}

// AliasRepository provides CRUD operations for aliases.
type AliasRepository struct {
	db *sql.DB
}

// Aliases returns the alias repository for this store.
func (s *Store) Aliases() *AliasRepository {
	return &AliasRepository{db: s.db}
}

const aliasColumns = `id, phrase, target, plugin_name, action_name, enabled, created_at`

// Create inserts a new alias. An empty ID is filled with a new UUID.
func (r *AliasRepository) Create(a *Alias) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO aliases (`+aliasColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Phrase, a.Target, a.PluginName, a.ActionName, a.Enabled, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an alias by its ID.
func (r *AliasRepository) GetByID(id string) (*Alias, error) {
	return r.scanOne(r.db.QueryRow(`SELECT `+aliasColumns+` FROM aliases WHERE id = ?`, id))
}

// GetByPhrase retrieves an alias by its phrase.
func (r *AliasRepository) GetByPhrase(phrase string) (*Alias, error) {
	return r.scanOne(r.db.QueryRow(`SELECT `+aliasColumns+` FROM aliases WHERE phrase = ?`, phrase))
}

func (r *AliasRepository) scanOne(row *sql.Row) (*Alias, error) {
	a := &Alias{}
	var enabled int
	err := row.Scan(&a.ID, &a.Phrase, &a.Target, &a.PluginName, &a.ActionName, &enabled, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Enabled = enabled != 0
	return a, nil
}

// List retrieves all aliases in creation order.
func (r *AliasRepository) List() ([]*Alias, error) {
	rows, err := r.db.Query(`SELECT ` + aliasColumns + ` FROM aliases ORDER BY created_at, phrase`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aliases []*Alias
	for rows.Next() {
		a := &Alias{}
		var enabled int
		if err := rows.Scan(&a.ID, &a.Phrase, &a.Target, &a.PluginName, &a.ActionName, &enabled, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Enabled = enabled != 0
		aliases = append(aliases, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aliases, nil
}

// Update replaces an existing alias.
func (r *AliasRepository) Update(a *Alias) error {
	result, err := r.db.Exec(
		`UPDATE aliases SET phrase = ?, target = ?, plugin_name = ?, action_name = ?, enabled = ?
		 WHERE id = ?`,
		a.Phrase, a.Target, a.PluginName, a.ActionName, a.Enabled, a.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Delete removes an alias by its ID.
func (r *AliasRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM aliases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// VoiceAliases returns the enabled aliases in the form the command table
// is built from.
func (r *AliasRepository) VoiceAliases() ([]voice.Alias, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	out := make([]voice.Alias, 0, len(all))
	for _, a := range all {
		if !a.Enabled {
			continue
		}
		out = append(out, voice.Alias{
			Phrase: a.Phrase,
			Target: a.Target,
			Plugin: a.PluginName,
			Action: a.ActionName,
		})
	}
	return out, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

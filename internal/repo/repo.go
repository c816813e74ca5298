package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"pal/internal/domain"
	"pal/internal/store"
)

// ErrNotFound aliases the store sentinel so callers can match either.
var ErrNotFound = store.ErrNotFound

// Repo is the persisted ProjectStore plus the chat-log, wallet, and
// event queries the CLI and server need. Project members and tasks
// are stored as JSON columns so every PutProject is an atomic
// replace-on-write of the full record.
type Repo struct {
	DB *sql.DB
}

var _ store.ProjectStore = Repo{}

func scanProject(scan func(dest ...any) error) (domain.Project, error) {
	var p domain.Project
	var client, description, budget, timeline, brief sql.NullString
	var membersJSON, tasksJSON string
	err := scan(&p.ID, &p.Title, &client, &description, &budget, &timeline, &brief, &membersJSON, &tasksJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.Client = client.String
	p.Description = description.String
	p.Budget = budget.String
	p.Timeline = timeline.String
	p.Brief = brief.String
	if err := json.Unmarshal([]byte(membersJSON), &p.Members); err != nil {
		return p, fmt.Errorf("decode members for project %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(tasksJSON), &p.Tasks); err != nil {
		return p, fmt.Errorf("decode tasks for project %s: %w", p.ID, err)
	}
	return p, nil
}

const projectColumns = `id,title,client,description,budget,timeline,brief,members_json,tasks_json,created_at`

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id)
	return scanProject(row.Scan)
}

// ListProjects returns projects newest-first, matching the
// insert-at-front ordering of the in-memory store.
func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) PutProject(ctx context.Context, p domain.Project) error {
	members, err := json.Marshal(p.Members)
	if err != nil {
		return fmt.Errorf("encode members: %w", err)
	}
	tasks, err := json.Marshal(p.Tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO projects(`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, client=excluded.client, description=excluded.description,
			budget=excluded.budget, timeline=excluded.timeline, brief=excluded.brief,
			members_json=excluded.members_json, tasks_json=excluded.tasks_json`,
		p.ID, p.Title, nullable(p.Client), nullable(p.Description), nullable(p.Budget),
		nullable(p.Timeline), nullable(p.Brief), string(members), string(tasks), p.CreatedAt)
	return err
}

// Members returns the persisted roster, or the default four-member
// roster when none has been saved.
func (r Repo) Members(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,role FROM members ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return store.DefaultMembers(), nil
	}
	return res, nil
}

func (r Repo) SetMembers(ctx context.Context, members []domain.Member) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM members`); err != nil {
		return err
	}
	for i, m := range members {
		if _, err := tx.ExecContext(ctx, `INSERT INTO members(id,name,role,position) VALUES (?,?,?,?)`,
			m.ID, m.Name, m.Role, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AppendChatMessage persists one entry of a conversation log.
func (r Repo) AppendChatMessage(ctx context.Context, conversation string, msg domain.ChatMessage) error {
	var actions any
	if len(msg.SuggestedActions) > 0 {
		data, err := json.Marshal(msg.SuggestedActions)
		if err != nil {
			return fmt.Errorf("encode suggested actions: %w", err)
		}
		actions = string(data)
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO chat_messages(id,conversation,sender,content,ts,actions_json) VALUES (?,?,?,?,?,?)`,
		msg.ID, conversation, msg.Sender, msg.Content, msg.Timestamp, actions)
	return err
}

// ChatLog returns a conversation's messages in insertion order.
func (r Repo) ChatLog(ctx context.Context, conversation string) ([]domain.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,sender,content,ts,actions_json FROM chat_messages WHERE conversation=? ORDER BY rowid`, conversation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var actions sql.NullString
		if err := rows.Scan(&m.ID, &m.Sender, &m.Content, &m.Timestamp, &actions); err != nil {
			return nil, err
		}
		if actions.Valid {
			if err := json.Unmarshal([]byte(actions.String), &m.SuggestedActions); err != nil {
				return nil, fmt.Errorf("decode suggested actions for message %s: %w", m.ID, err)
			}
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// ReplaceTransactions swaps the stored wallet transfer list and
// remembers the wallet address they were imported for.
func (r Repo) ReplaceTransactions(ctx context.Context, address string, txs []domain.Transaction) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return err
	}
	for _, t := range txs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO transactions(ts,from_addr,to_addr,value) VALUES (?,?,?,?)`,
			t.Timestamp, t.From, t.To, t.Value); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO wallet(id,address) VALUES (1,?) ON CONFLICT(id) DO UPDATE SET address=excluded.address`, address); err != nil {
		return err
	}
	return tx.Commit()
}

// Transactions returns the stored transfer list and wallet address.
func (r Repo) Transactions(ctx context.Context) ([]domain.Transaction, string, error) {
	var address string
	err := r.DB.QueryRowContext(ctx, `SELECT address FROM wallet WHERE id=1`).Scan(&address)
	if err != nil && err != sql.ErrNoRows {
		return nil, "", err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT ts,from_addr,to_addr,value FROM transactions ORDER BY ts DESC`)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var res []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.Timestamp, &t.From, &t.To, &t.Value); err != nil {
			return nil, "", err
		}
		res = append(res, t)
	}
	return res, address, rows.Err()
}

// LatestEvents returns up to n newest activity-log rows, optionally
// filtered by type and entity kind.
func (r Repo) LatestEvents(ctx context.Context, n int, evtType, entityKind string) ([]domain.Event, error) {
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),payload_json FROM events WHERE 1=1`
	var args []any
	if evtType != "" {
		query += ` AND type=?`
		args = append(args, evtType)
	}
	if entityKind != "" {
		query += ` AND entity_kind=?`
		args = append(args, entityKind)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

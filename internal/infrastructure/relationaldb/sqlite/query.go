package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/ports"
)

// ConnectedPIDs returns a lazy query over the PIDs connected to pid by edges
// of the given relation type. When fromParent is true the query yields
// children of pid; otherwise it yields parents. No SQL runs until a terminal
// method executes.
func (r *Repository) ConnectedPIDs(pid entities.PIDRef, relationType int, fromParent bool) ports.PIDQuery {
	return pidQuery{
		q:            r.q,
		ref:          pid,
		relationType: relationType,
		fromParent:   fromParent,
		order:        ports.OrderAsc,
	}
}

// pidQuery is an immutable query description. Modifier methods return a
// derived copy; the receiver is never changed, so a query can be held and
// refined into several variants.
type pidQuery struct {
	q            dbtx
	ref          entities.PIDRef
	relationType int
	fromParent   bool

	order     ports.Order
	statuses  []entities.PIDStatus
	withIndex bool
	indexGT   *int
	indexLT   *int
}

var _ ports.PIDQuery = pidQuery{}

// clone returns a copy with its own slice backing, so derived queries never
// alias the receiver's filters.
func (pq pidQuery) clone() pidQuery {
	cp := pq
	if pq.statuses != nil {
		cp.statuses = make([]entities.PIDStatus, len(pq.statuses))
		copy(cp.statuses, pq.statuses)
	}
	if pq.indexGT != nil {
		v := *pq.indexGT
		cp.indexGT = &v
	}
	if pq.indexLT != nil {
		v := *pq.indexLT
		cp.indexLT = &v
	}
	return cp
}

// Ordered returns a derived query sorted by edge index in the given direction.
func (pq pidQuery) Ordered(ord ports.Order) (ports.PIDQuery, error) {
	if !ord.IsValid() {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidOrder, ord)
	}
	cp := pq.clone()
	cp.order = ord
	return cp, nil
}

// Status returns a derived query restricted to PIDs in any of the given
// lifecycle statuses.
func (pq pidQuery) Status(statuses ...entities.PIDStatus) ports.PIDQuery {
	cp := pq.clone()
	cp.statuses = append(cp.statuses, statuses...)
	return cp
}

// WithIndex returns a derived query restricted to edges carrying an order
// index.
func (pq pidQuery) WithIndex() ports.PIDQuery {
	cp := pq.clone()
	cp.withIndex = true
	return cp
}

// IndexGreaterThan returns a derived query restricted to edges whose index
// is strictly greater than idx.
func (pq pidQuery) IndexGreaterThan(idx int) ports.PIDQuery {
	cp := pq.clone()
	v := idx
	cp.indexGT = &v
	return cp
}

// IndexLessThan returns a derived query restricted to edges whose index is
// strictly less than idx.
func (pq pidQuery) IndexLessThan(idx int) ports.PIDQuery {
	cp := pq.clone()
	v := idx
	cp.indexLT = &v
	return cp
}

// buildSelect assembles the SQL for the given select list. Ordering is
// applied only when ordered is true; COUNT and EXISTS terminals skip it.
func (pq pidQuery) buildSelect(selectList string, ordered bool) (string, []any) {
	toColumn := "r.parent_id"
	fromColumn := "r.child_id"
	if pq.fromParent {
		toColumn = "r.child_id"
		fromColumn = "r.parent_id"
	}

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT " + selectList + " FROM pid_relations r")
	sb.WriteString(" JOIN pids AS to_pid ON to_pid.id = " + toColumn)

	var conds []string
	conds = append(conds, "r.relation_type = ?")
	args = append(args, pq.relationType)

	if pq.ref.IsResolved() {
		conds = append(conds, fromColumn+" = ?")
		args = append(args, pq.ref.PID().ID)
	} else {
		// Unresolved references join against the pids table by their
		// identifying pair, so a missing PID simply yields no rows.
		sb.WriteString(" JOIN pids AS from_pid ON from_pid.id = " + fromColumn)
		conds = append(conds, "from_pid.pid_type = ?", "from_pid.pid_value = ?")
		args = append(args, pq.ref.PIDType(), pq.ref.PIDValue())
		if pq.ref.Provider() != "" {
			conds = append(conds, "from_pid.provider = ?")
			args = append(args, pq.ref.Provider())
		}
	}

	if len(pq.statuses) > 0 {
		placeholders := make([]string, len(pq.statuses))
		for i, s := range pq.statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		conds = append(conds, "to_pid.status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if pq.withIndex {
		conds = append(conds, "r.idx IS NOT NULL")
	}
	if pq.indexGT != nil {
		conds = append(conds, "r.idx > ?")
		args = append(args, *pq.indexGT)
	}
	if pq.indexLT != nil {
		conds = append(conds, "r.idx < ?")
		args = append(args, *pq.indexLT)
	}

	sb.WriteString(" WHERE " + strings.Join(conds, " AND "))

	if ordered {
		dir := "ASC"
		if pq.order == ports.OrderDesc {
			dir = "DESC"
		}
		sb.WriteString(" ORDER BY r.idx " + dir)
	}
	return sb.String(), args
}

const toPIDColumns = `to_pid.id, to_pid.pid_type, to_pid.pid_value, to_pid.provider, to_pid.status, to_pid.object_uuid, to_pid.created_at, to_pid.updated_at`

// Count returns the number of matching PIDs.
func (pq pidQuery) Count(ctx context.Context) (int, error) {
	query, args := pq.buildSelect("COUNT(*)", false)
	var count int
	if err := pq.q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting connected pids: %w", err)
	}
	return count, nil
}

// First returns the first matching PID, or nil when there are none.
func (pq pidQuery) First(ctx context.Context) (*entities.PID, error) {
	pids, err := pq.limited(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return nil, nil
	}
	return pids[0], nil
}

// One returns the single matching PID. It fails with ErrNoResults when
// nothing matches and ErrMultipleResults when more than one PID does.
func (pq pidQuery) One(ctx context.Context) (*entities.PID, error) {
	pids, err := pq.limited(ctx, 2)
	if err != nil {
		return nil, err
	}
	switch len(pids) {
	case 0:
		return nil, entities.ErrNoResults
	case 1:
		return pids[0], nil
	default:
		return nil, entities.ErrMultipleResults
	}
}

// OneOrNone returns the single matching PID, nil when nothing matches, and
// ErrMultipleResults when more than one PID does.
func (pq pidQuery) OneOrNone(ctx context.Context) (*entities.PID, error) {
	pids, err := pq.limited(ctx, 2)
	if err != nil {
		return nil, err
	}
	switch len(pids) {
	case 0:
		return nil, nil
	case 1:
		return pids[0], nil
	default:
		return nil, entities.ErrMultipleResults
	}
}

// All returns every matching PID in query order.
func (pq pidQuery) All(ctx context.Context) ([]*entities.PID, error) {
	query, args := pq.buildSelect(toPIDColumns, true)
	return pq.collect(ctx, query, args)
}

// Exists reports whether any PID matches.
func (pq pidQuery) Exists(ctx context.Context) (bool, error) {
	inner, args := pq.buildSelect("1", false)
	var exists bool
	if err := pq.q.QueryRowContext(ctx, "SELECT EXISTS ("+inner+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking connected pids: %w", err)
	}
	return exists, nil
}

// limited runs the query with a row cap.
func (pq pidQuery) limited(ctx context.Context, n int) ([]*entities.PID, error) {
	query, args := pq.buildSelect(toPIDColumns, true)
	query += fmt.Sprintf(" LIMIT %d", n)
	return pq.collect(ctx, query, args)
}

// collect executes the query and scans the result rows.
func (pq pidQuery) collect(ctx context.Context, query string, args []any) ([]*entities.PID, error) {
	rows, err := pq.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying connected pids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pids []*entities.PID
	for rows.Next() {
		pid, err := scanPID(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pid: %w", err)
		}
		pids = append(pids, pid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pid rows: %w", err)
	}
	return pids, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sapiencia-analitica/matricula-portal/types"
)

// enrollmentView is the pre-joined reporting view for the 2025-2 cohort.
const enrollmentView = "vw_matricula_cero_2025_2"

// EnrollmentRepository reads the enrollment-waiver reporting view. The view
// is wide and its schema is not owned by the portal, so rows are scanned
// dynamically against whatever columns it exposes.
type EnrollmentRepository struct {
	db *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByDocument returns every row matching the document number exactly,
// with every column. Zero matches yield an empty RecordSet, not an error.
func (r *EnrollmentRepository) FindByDocument(ctx context.Context, documento string) (types.RecordSet, error) {
	const query = `SELECT * FROM ` + enrollmentView + ` WHERE documento = $1`
	rows, err := r.db.QueryContext(ctx, query, documento)
	if err != nil {
		return types.RecordSet{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return types.RecordSet{}, err
	}

	set := types.RecordSet{Columns: columns, Rows: [][]string{}}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return types.RecordSet{}, err
		}

		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		set.Rows = append(set.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return types.RecordSet{}, err
	}
	return set, nil
}

func formatValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(typed)
	case string:
		return typed
	case time.Time:
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}

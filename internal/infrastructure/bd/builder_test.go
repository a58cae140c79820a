package bd

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labequip-system/pkg/types"
)

var allowed = map[string]string{
	"status":  "br.status",
	"room_id": "e.room_id",
}

func baseBuilder() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select("*").From("borrow_requests br")
}

func TestApplyListParams_Filter(t *testing.T) {
	filter := types.Filter{Filter: map[string]interface{}{"status": "PENDING"}}

	query, args, err := ApplyListParams(baseBuilder(), filter, allowed).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "br.status = $1")
	assert.Equal(t, []interface{}{"PENDING"}, args)
}

func TestApplyListParams_CommaListBecomesIn(t *testing.T) {
	filter := types.Filter{Filter: map[string]interface{}{"room_id": "1,2,3"}}

	query, args, err := ApplyListParams(baseBuilder(), filter, allowed).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "e.room_id IN ($1,$2,$3)")
	assert.Len(t, args, 3)
}

func TestApplyListParams_UnknownFieldIgnored(t *testing.T) {
	filter := types.Filter{
		Filter: map[string]interface{}{"password_hash": "x"},
		Sort:   map[string]string{"password_hash": "asc"},
	}

	query, args, err := ApplyListParams(baseBuilder(), filter, allowed).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "password_hash")
	assert.Empty(t, args)
}

func TestApplyListParams_SortAndPagination(t *testing.T) {
	filter := types.Filter{
		Sort:   map[string]string{"status": "desc"},
		Limit:  10,
		Offset: 20,
	}

	query, _, err := ApplyListParams(baseBuilder(), filter, allowed).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "ORDER BY br.status DESC")
	assert.Contains(t, query, "LIMIT 10")
	assert.Contains(t, query, "OFFSET 20")
}

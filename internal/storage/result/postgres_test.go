package result

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_NoFilter(t *testing.T) {
	query, args := buildListQuery(ListFilter{}, false)

	require.Empty(t, args)
	assert.Contains(t, query, "FROM backtest_results")
	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.NotContains(t, query, "LIMIT")
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	filter := ListFilter{
		UserID: "user1",
		Code:   "7203",
		From:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Limit:  10,
		Offset: 20,
	}

	query, args := buildListQuery(filter, false)

	require.Len(t, args, 6)
	assert.Equal(t, "user1", args[0])
	assert.Equal(t, "7203", args[1])
	assert.Contains(t, query, "user_id = $1")
	assert.Contains(t, query, "code = $2")
	assert.Contains(t, query, "created_at >= $3")
	assert.Contains(t, query, "created_at <= $4")
	assert.Contains(t, query, "LIMIT $5")
	assert.Contains(t, query, "OFFSET $6")
}

func TestBuildListQuery_Count(t *testing.T) {
	query, args := buildListQuery(ListFilter{UserID: "user1"}, true)

	require.Len(t, args, 1)
	assert.True(t, strings.HasPrefix(query, "SELECT COUNT(*)"))
	assert.NotContains(t, query, "ORDER BY")
	assert.NotContains(t, query, "LIMIT")
}

package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilterFromQuery(t *testing.T) {
	values, err := url.ParseQuery("search=осциллограф&sort[created_at]=desc&filter[condition]=GOOD&filter[room_id]=1&filter[room_id]=2&limit=10&page=2")
	assert.NoError(t, err)

	filter := ParseFilterFromQuery(values)

	assert.Equal(t, "осциллограф", filter.Search)
	assert.Equal(t, "desc", filter.Sort["created_at"])
	assert.Equal(t, "GOOD", filter.Filter["condition"])
	assert.Equal(t, "1,2", filter.Filter["room_id"], "повторы параметра склеиваются через запятую")
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, 10, filter.Offset, "offset выводится из страницы")
}

func TestParseFilterFromQuery_Defaults(t *testing.T) {
	filter := ParseFilterFromQuery(url.Values{})

	assert.Equal(t, DefaultLimit, filter.Limit)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 0, filter.Offset)
}

func TestParseFilterFromQuery_LimitCapped(t *testing.T) {
	values, _ := url.ParseQuery("limit=100000")
	filter := ParseFilterFromQuery(values)
	assert.Equal(t, MaxLimit, filter.Limit)
}

func TestParseFilterFromQuery_IgnoresBadSortDirection(t *testing.T) {
	values, _ := url.ParseQuery("sort[name]=sideways")
	filter := ParseFilterFromQuery(values)
	assert.NotContains(t, filter.Sort, "name")
}

package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestSessionRecordSchema(t *testing.T) {
	s, err := schema.Parse(&SessionRecord{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := s.LookUpField("QuestionIDs")
	require.NotNil(t, field)
	assert.Equal(t, "question_ids", field.DBName)
	assert.NotEmpty(t, field.DataType)
}

func TestIDListRoundTrip(t *testing.T) {
	v, err := IDList{"q1", "q2-2"}.Value()
	require.NoError(t, err)

	var got IDList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, IDList{"q1", "q2-2"}, got)
}

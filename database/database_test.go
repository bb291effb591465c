package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsBadDSN(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = Open("postgres://user@%zz:5432/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to database")
}

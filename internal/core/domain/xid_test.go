package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/internal/core/domain"
)

func TestXid_ParseRoundTrip(t *testing.T) {
	xid := domain.NewXid()

	parsed, err := domain.ParseXid(xid.String())
	require.NoError(t, err)
	assert.Equal(t, xid, parsed)

	// Structural equality makes parsed values usable as map keys.
	m := map[domain.Xid]int{xid: 1}
	assert.Equal(t, 1, m[parsed])
}

func TestXid_Branch(t *testing.T) {
	root := domain.NewXid()
	branch := domain.NewBranchXid(root.GlobalID)

	assert.Equal(t, root.GlobalID, branch.GlobalID)
	assert.NotEqual(t, root.BranchID, branch.BranchID)
	assert.Equal(t, domain.DefaultFormatID, branch.FormatID)
}

func TestParseXid_Invalid(t *testing.T) {
	valid := uuid.NewString()
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"TooFewParts", "1:" + valid},
		{"TooManyParts", "1:" + valid + ":" + valid + ":x"},
		{"BadFormat", "one:" + valid + ":" + valid},
		{"FormatOverflow", "4294967296:" + valid + ":" + valid},
		{"BadGlobal", "1:nope:" + valid},
		{"BadBranch", "1:" + valid + ":nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseXid(tt.input)
			require.ErrorIs(t, err, domain.ErrInvalidXid)
		})
	}
}

func TestXid_Bytes(t *testing.T) {
	xid := domain.Xid{FormatID: -7, GlobalID: uuid.New(), BranchID: uuid.New()}

	b := xid.Bytes()
	require.Len(t, b, 36)

	decoded, err := domain.XidFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, xid, decoded)

	_, err = domain.XidFromBytes(b[:35])
	require.ErrorIs(t, err, domain.ErrInvalidXid)
}

func TestXid_IsZero(t *testing.T) {
	assert.True(t, domain.Xid{}.IsZero())
	assert.False(t, domain.NewXid().IsZero())
}

func TestXid_JSON(t *testing.T) {
	xid := domain.NewXid()

	data, err := json.Marshal(xid)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+xid.String()+`"`, string(data))

	var decoded domain.Xid
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, xid, decoded)

	require.ErrorIs(t, json.Unmarshal([]byte(`"garbage"`), &decoded), domain.ErrInvalidXid)
}

package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationStatusTransitionTargets(t *testing.T) {
	tests := []struct {
		status ReservationStatus
		want   bool
	}{
		{ReservationStatusPending, false},
		{ReservationStatusApproved, true},
		{ReservationStatusRejected, true},
		{ReservationStatus("cancelled"), false},
		{ReservationStatus(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValidTransitionTarget())
		})
	}
}

func TestReservationIsOwnedBy(t *testing.T) {
	r := &Reservation{UserID: "usr-1"}
	assert.True(t, r.IsOwnedBy("usr-1"))
	assert.False(t, r.IsOwnedBy("usr-2"))
	assert.False(t, r.IsOwnedBy(""))

	var nilRes *Reservation
	assert.False(t, nilRes.IsOwnedBy("usr-1"))
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	u := User{ID: "usr-1", Email: "a@b.c", PasswordHash: "$2a$secret"}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}

func TestUserSummary(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.Summary())

	u := &User{ID: "usr-1", Name: "Alice", Email: "alice@example.com", PhoneNumber: "555", IsAdmin: true}
	assert.Equal(t, &UserSummary{ID: "usr-1", Name: "Alice", Email: "alice@example.com", PhoneNumber: "555"}, u.Summary())
}

func TestReservationDetailJSONKeepsMissingRefsAsNull(t *testing.T) {
	d := ReservationDetail{Reservation: Reservation{ID: "rsv-1", Status: ReservationStatusPending}}
	data, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "rsv-1", out["id"])
	assert.Contains(t, out, "user")
	assert.Nil(t, out["user"])
	assert.Nil(t, out["book"])
}

func TestNewID(t *testing.T) {
	a := NewID(IDPrefixReservation)
	b := NewID(IDPrefixReservation)
	assert.True(t, strings.HasPrefix(a, IDPrefixReservation))
	assert.NotEqual(t, a, b)
}

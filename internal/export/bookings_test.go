package export

import (
	"bytes"
	"testing"
	"time"

	"rentbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	bookings := []*models.Booking{
		{ID: "b1", CustomerName: "Carla", ServiceName: "Dress", Date: "2024-06-10", Time: "10:00",
			Status: models.StatusConfirmed, Price: 120, Quantity: 1, UID: "C", OwnerUID: "S", CreatedAt: from},
		{ID: "b2", CustomerName: "Dan", ServiceName: "Suit", Status: models.StatusPending, Quantity: 2,
			UID: "D", OwnerUID: "S", CreatedAt: from.Add(time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings, from, to))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{bookingsSheet}, f.GetSheetList())

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Bookings 2024-06-01 - 2024-06-30", rows[0][0])
	assert.Equal(t, bookingHeaders, rows[1])
	assert.Equal(t, "b1", rows[2][0])
	assert.Equal(t, "confirmed", rows[2][5])
	assert.Equal(t, "120", rows[2][6])
	assert.Equal(t, "pending", rows[3][5])
	assert.Equal(t, "2", rows[3][7])
}

func TestWriteBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()
	require.NoError(t, WriteBookings(&buf, nil, now, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFileName(t *testing.T) {
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "bookings_2024-01-02_to_2024-01-09.xlsx", FileName(from, from.AddDate(0, 0, 7)))
}

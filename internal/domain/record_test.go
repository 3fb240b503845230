package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

func TestParseKind(t *testing.T) {
	for _, kind := range domain.Kinds() {
		parsed, err := domain.ParseKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
	_, err := domain.ParseKind("invoice")
	assert.Error(t, err)
}

func TestStatusLattice(t *testing.T) {
	cases := []struct {
		kind domain.RecordKind
		from domain.RecordStatus
		to   domain.RecordStatus
		ok   bool
	}{
		{domain.KindAppointment, domain.AppointmentScheduled, domain.AppointmentCompleted, true},
		{domain.KindAppointment, domain.AppointmentScheduled, domain.AppointmentCancelled, true},
		{domain.KindAppointment, domain.AppointmentCompleted, domain.AppointmentScheduled, false},
		{domain.KindAppointment, domain.AppointmentCancelled, domain.AppointmentCompleted, false},

		{domain.KindDocument, domain.DocumentPending, domain.DocumentProcessing, true},
		{domain.KindDocument, domain.DocumentProcessing, domain.DocumentCompleted, true},
		{domain.KindDocument, domain.DocumentPending, domain.DocumentCompleted, false},
		{domain.KindDocument, domain.DocumentCompleted, domain.DocumentPending, false},

		{domain.KindPayment, domain.PaymentPendingVerification, domain.PaymentVerified, true},
		{domain.KindPayment, domain.PaymentPendingVerification, domain.PaymentRejected, true},
		{domain.KindPayment, domain.PaymentVerified, domain.PaymentRejected, false},
		{domain.KindPayment, domain.PaymentRejected, domain.PaymentPendingVerification, false},
	}
	for _, tc := range cases {
		got := tc.kind.CanTransition(tc.from, tc.to)
		assert.Equal(t, tc.ok, got, "%s: %s -> %s", tc.kind, tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, domain.KindAppointment.Terminal(domain.AppointmentScheduled))
	assert.True(t, domain.KindAppointment.Terminal(domain.AppointmentCompleted))
	assert.True(t, domain.KindAppointment.Terminal(domain.AppointmentCancelled))
	assert.False(t, domain.KindDocument.Terminal(domain.DocumentProcessing))
	assert.True(t, domain.KindDocument.Terminal(domain.DocumentCompleted))
	assert.True(t, domain.KindPayment.Terminal(domain.PaymentVerified))
	assert.True(t, domain.KindPayment.Terminal(domain.PaymentRejected))
}

func TestInitialAndValidStatus(t *testing.T) {
	assert.Equal(t, domain.AppointmentScheduled, domain.KindAppointment.InitialStatus())
	assert.Equal(t, domain.DocumentPending, domain.KindDocument.InitialStatus())
	assert.Equal(t, domain.PaymentPendingVerification, domain.KindPayment.InitialStatus())

	assert.True(t, domain.KindAppointment.ValidStatus(domain.AppointmentCancelled))
	assert.False(t, domain.KindAppointment.ValidStatus(domain.PaymentVerified))
	// "completed" belongs to both appointment and document lattices.
	assert.True(t, domain.KindDocument.ValidStatus(domain.DocumentCompleted))
	assert.False(t, domain.KindPayment.ValidStatus(domain.DocumentProcessing))
}

func TestTrackedRecordValidate(t *testing.T) {
	record := domain.TrackedRecord{
		ID:     "a1",
		Kind:   domain.KindAppointment,
		Status: domain.AppointmentScheduled,
		Appointment: &domain.AppointmentDetails{
			Service: "gst-registration",
		},
	}
	require.NoError(t, record.Validate())

	record.Payment = &domain.PaymentDetails{Amount: 100, Currency: "INR", Method: "upi"}
	assert.Error(t, record.Validate(), "two detail blocks on one record")

	record.Payment = nil
	record.Status = domain.PaymentRejected
	assert.Error(t, record.Validate(), "status from another kind's lattice")

	record.Status = domain.AppointmentScheduled
	record.Kind = "invoice"
	assert.Error(t, record.Validate())
}
